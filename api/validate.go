package api

import "github.com/gaborage/go-arcstack/schema"

// Bind validates the request against every parameter of the signature.
// Failures from all parameters are collected into one ValidationError.
// Field paths are prefixed with the parameter name.
func (s *MethodSignature) Bind(req *Request, debug bool) (Args, error) {
	args := make(Args, len(s.Params))
	var failures []schema.FieldError

	for _, p := range s.Params {
		raw, parseErr := p.extract(req, debug)
		if parseErr != nil {
			failures = append(failures, *parseErr)
			continue
		}

		value, errs := p.Schema.Validate(raw)
		if len(errs) > 0 {
			for _, fe := range errs {
				fe.Field = qualify(p.Name, fe.Field)
				failures = append(failures, fe)
			}
			continue
		}
		args[p.Name] = value
	}

	if len(failures) > 0 {
		return nil, &ValidationError{Errors: failures}
	}
	return args, nil
}

func qualify(param, field string) string {
	if field == "" {
		return param
	}
	return param + "." + field
}
