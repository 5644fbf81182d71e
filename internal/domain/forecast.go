package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RawForecastDocument is one location's forecast as returned by the source.
type RawForecastDocument struct {
	Forecasts []RawDay `json:"forecasts" validate:"required,dive"`
}

// RawDay is a single forecast day with its hourly samples in source order.
type RawDay struct {
	Date  string    `json:"date" validate:"required,datetime=2006-01-02"`
	Hours []RawHour `json:"hours" validate:"required,dive"`
}

// RawHour is one hourly sample. Pointers distinguish a missing field from zero.
type RawHour struct {
	Hour        *FlexInt `json:"hour" validate:"required,min=0,max=23"`
	Temperature *FlexInt `json:"temp" validate:"required"`
	Condition   *string  `json:"condition" validate:"required"`
}

// FlexInt decodes a JSON integer or a string holding one.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("expected integer, got %s", data)
	}
	*n = FlexInt(v)
	return nil
}

// NewRawHour builds a sample from plain values.
func NewRawHour(hour, temp int, condition string) RawHour {
	h, t := FlexInt(hour), FlexInt(temp)
	return RawHour{Hour: &h, Temperature: &t, Condition: &condition}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names in validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeForecast parses and validates a raw forecast payload for location.
// Any shape mismatch is returned as a *SchemaError.
func DecodeForecast(location string, payload []byte) (RawForecastDocument, error) {
	var doc RawForecastDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		field := ""
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = typeErr.Field
		}
		return RawForecastDocument{}, &SchemaError{Location: location, Field: field, Err: err}
	}
	if err := ValidateForecast(location, doc); err != nil {
		return RawForecastDocument{}, err
	}
	return doc, nil
}

// ValidateForecast checks an already decoded document.
func ValidateForecast(location string, doc RawForecastDocument) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &SchemaError{
			Location: location,
			Field:    strings.TrimPrefix(fe.Namespace(), "RawForecastDocument."),
			Err:      fmt.Errorf("failed %q validation", fe.Tag()),
		}
	}
	return &SchemaError{Location: location, Err: err}
}
