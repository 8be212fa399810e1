package http

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// supportedLanguages 概率展示支持的语言，第一个为默认
var supportedLanguages = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Portuguese,
	language.Chinese,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// FormatProbability 按Accept-Language格式化概率，保留两位小数
func FormatProbability(probability float64, acceptLanguage string) string {
	tag, _ := language.MatchStrings(languageMatcher, acceptLanguage)
	return message.NewPrinter(tag).Sprintf("%.2f", probability)
}
