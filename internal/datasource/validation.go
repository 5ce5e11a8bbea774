package datasource

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/kaptinlin/jsonschema"
	"k8s.io/apimachinery/pkg/api/resource"
)

func (f FieldError) Error() string {
	return f.Field + ": " + f.Message
}

func mustCompile(schema string) *jsonschema.Schema {
	compiled, err := jsonschema.NewCompiler().Compile([]byte(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %s", err))
	}
	return compiled
}

// checkSchema validates the JSON form of dto against schema.
func checkSchema(schema *jsonschema.Schema, dto interface{}) *multierror.Error {
	var merr *multierror.Error

	data, err := json.Marshal(dto)
	if err != nil {
		return multierror.Append(merr, FieldError{Field: "$", Message: err.Error()})
	}
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	for field, problem := range result.Errors {
		merr = multierror.Append(merr, FieldError{Field: fmt.Sprint(field), Message: fmt.Sprint(problem)})
	}
	if merr == nil {
		merr = multierror.Append(merr, FieldError{Field: "$", Message: "does not match schema"})
	}
	return merr
}

func checkQuantity(merr *multierror.Error, field, value string) *multierror.Error {
	if value == "" {
		return merr
	}
	if _, err := resource.ParseQuantity(value); err != nil {
		return multierror.Append(merr, FieldError{Field: field, Message: fmt.Sprintf("%q is not a valid quantity", value)})
	}
	return merr
}

// validationError turns collected field errors into a *ValidationError, nil when there are none.
func validationError(kind string, merr *multierror.Error) error {
	if merr.ErrorOrNil() == nil {
		return nil
	}
	ret := &ValidationError{Kind: kind}
	for _, err := range merr.Errors {
		var field FieldError
		if errors.As(err, &field) {
			ret.Fields = append(ret.Fields, field)
		} else {
			ret.Fields = append(ret.Fields, FieldError{Field: "$", Message: err.Error()})
		}
	}
	return ret
}
