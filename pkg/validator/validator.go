package validator

import (
	"log"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterGinValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err := v.RegisterValidation("aptosaddress", aptosAddressValidator)
		if err != nil {
			log.Fatal("register aptosaddress validator failed")
		}
	}
}

var aptosAddressValidator validator.Func = func(fl validator.FieldLevel) bool {
	address := fl.Field().String()
	pattern := `^0x[0-9a-fA-F]{8,64}$`
	matched, err := regexp.MatchString(pattern, address)
	if err != nil {
		return false
	}
	return matched
}
