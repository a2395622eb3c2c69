package middleware

import (
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// SetupValidator registers custom type handling on gin's validator engine.
// decimal.Decimal fields are exposed to the validator as float64 so numeric
// tags (gt, gte, lt) apply to monetary request fields.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterCustomTypeFunc(decimalToFloat, decimal.Decimal{})
}

func decimalToFloat(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}
