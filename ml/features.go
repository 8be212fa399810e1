package ml

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	VoiceMailMessages    = "voice_mail_messages"
	CustomerServiceCalls = "customer_service_calls"
	InternationalPlan    = "international_plan"
	InternationalCharge  = "international_charge"
	InternationalCalls   = "international_calls"
	DayMins              = "day_mins"
	EveningMins          = "evening_mins"
	NightMins            = "night_mins"
	TotalCharge          = "total_charge"
)

// FeatureCount is the width of every record handed to the scaler.
const FeatureCount = 9

const (
	PlanYes = "Yes"
	PlanNo  = "No"
)

// FeatureRecord holds one customer's features in training order.
type FeatureRecord [FeatureCount]float64

// RawInputs maps feature names to the user's literal input.
type RawInputs map[string]string

// FeatureNames returns the training-time column order.
func FeatureNames() []string {
	return []string{
		VoiceMailMessages,
		CustomerServiceCalls,
		InternationalPlan,
		InternationalCharge,
		InternationalCalls,
		DayMins,
		EveningMins,
		NightMins,
		TotalCharge,
	}
}

var featureLabels = map[string]string{
	VoiceMailMessages:    "Voice Mail Messages",
	CustomerServiceCalls: "Customer Service Calls",
	InternationalPlan:    "International Plan",
	InternationalCharge:  "International Charge",
	InternationalCalls:   "International Calls",
	DayMins:              "Day Minutes",
	EveningMins:          "Evening Minutes",
	NightMins:            "Night Minutes",
	TotalCharge:          "Total Charge",
}

// FeatureLabel returns the display name of a feature.
func FeatureLabel(name string) string {
	if label, ok := featureLabels[name]; ok {
		return label
	}
	return name
}

// PlanOptions lists the selector choices; the first one is the default.
func PlanOptions() []string {
	return []string{PlanNo, PlanYes}
}

// IsCategorical reports whether the feature is entered through the Yes/No selector.
func IsCategorical(name string) bool {
	return name == InternationalPlan
}

func EncodeInternationalPlan(value string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "no":
		return 0, nil
	case "yes":
		return 1, nil
	default:
		return 0, &InputError{Field: InternationalPlan, Value: value, Err: ErrInvalidCategory}
	}
}

// BuildFeatureRecord encodes the categorical field, coerces the numeric ones
// and lays everything out in FeatureNames order. Unset numeric fields are 0.
func BuildFeatureRecord(raw RawInputs) (FeatureRecord, error) {
	var record FeatureRecord
	if err := checkUnknownFields(raw); err != nil {
		return record, err
	}
	for i, name := range FeatureNames() {
		value := raw[name]
		if IsCategorical(name) {
			encoded, err := EncodeInternationalPlan(value)
			if err != nil {
				return record, err
			}
			record[i] = encoded
			continue
		}
		parsed, err := parseNumeric(name, value)
		if err != nil {
			return record, err
		}
		record[i] = parsed
	}
	return record, nil
}

// Map returns the record keyed by feature name.
func (r FeatureRecord) Map() map[string]float64 {
	out := make(map[string]float64, FeatureCount)
	for i, name := range FeatureNames() {
		out[name] = r[i]
	}
	return out
}

// Row returns the record as a single scaler row.
func (r FeatureRecord) Row() []float64 {
	row := make([]float64, FeatureCount)
	copy(row, r[:])
	return row
}

func parseNumeric(name, value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, &InputError{Field: name, Value: value, Err: ErrNotNumeric}
	}
	return parsed, nil
}

func checkUnknownFields(raw RawInputs) error {
	unknown := make([]string, 0)
	for key := range raw {
		if _, ok := featureLabels[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	key := unknown[0]
	return &InputError{Field: key, Err: ErrUnknownField, Suggestion: SuggestFeature(key)}
}

// SuggestFeature returns the closest known feature name, or "" when nothing is close.
func SuggestFeature(key string) string {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), " ", "_"))
	best := ""
	bestDist := -1
	for _, name := range FeatureNames() {
		dist := levenshtein.ComputeDistance(normalized, name)
		if bestDist < 0 || dist < bestDist {
			best = name
			bestDist = dist
		}
	}
	if bestDist > len(best)/2 {
		return ""
	}
	return best
}

// String renders the record as name=value pairs in order.
func (r FeatureRecord) String() string {
	parts := make([]string, 0, FeatureCount)
	for i, name := range FeatureNames() {
		parts = append(parts, fmt.Sprintf("%s=%g", name, r[i]))
	}
	return strings.Join(parts, " ")
}
