package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"churnpredict/ml"
)

// errMalformedBody 请求体不是JSON对象
var errMalformedBody = errors.New("request body must be a JSON object")

// decodeRawInputs 解析JSON对象为原始输入，数字保留原文
func decodeRawInputs(body io.Reader) (ml.RawInputs, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if payload == nil {
		return nil, errMalformedBody
	}
	return rawInputsFromJSON(payload)
}

func decodeRawInputsBytes(data []byte) (ml.RawInputs, error) {
	return decodeRawInputs(bytes.NewReader(data))
}

func rawInputsFromJSON(payload map[string]any) (ml.RawInputs, error) {
	raw := make(ml.RawInputs, len(payload))
	for name, value := range payload {
		switch v := value.(type) {
		case nil:
			raw[name] = ""
		case string:
			raw[name] = v
		case json.Number:
			if ml.IsCategorical(name) {
				return nil, &ml.InputError{Field: name, Value: v.String(), Err: ml.ErrInvalidCategory}
			}
			raw[name] = v.String()
		default:
			sentinel := ml.ErrNotNumeric
			if ml.IsCategorical(name) {
				sentinel = ml.ErrInvalidCategory
			}
			return nil, &ml.InputError{Field: name, Value: fmt.Sprint(v), Err: sentinel}
		}
	}
	return raw, nil
}

// rawInputsFromForm 表单值原样转交，未知键由校验报错
func rawInputsFromForm(form url.Values) ml.RawInputs {
	raw := make(ml.RawInputs, len(form))
	for name := range form {
		raw[name] = form.Get(name)
	}
	return raw
}
