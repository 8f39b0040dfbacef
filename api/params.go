package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/gaborage/go-arcstack/schema"
)

// Source says where a parameter's raw data comes from.
type Source int

// Parameter sources. The zero value is invalid so that an unset source is
// caught at registration.
const (
	SourceQuery Source = iota + 1
	SourcePath
	SourceBody
)

func (s Source) String() string {
	switch s {
	case SourceQuery:
		return "query"
	case SourcePath:
		return "path"
	case SourceBody:
		return "body"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

func (s Source) valid() bool {
	return s >= SourceQuery && s <= SourceBody
}

// ParameterSpec binds one named handler argument to a request source and a
// schema.
type ParameterSpec struct {
	Name   string
	Source Source
	Schema schema.Schema
}

const maxMultipartMemory = 32 << 20

// extract returns the raw data for the parameter. A body that cannot be
// parsed yields a single field error; the parser detail is only exposed in
// debug mode.
func (p ParameterSpec) extract(req *Request, debug bool) (any, *schema.FieldError) {
	switch p.Source {
	case SourceQuery:
		return req.Query, nil
	case SourcePath:
		return req.PathParams, nil
	default:
		data, err := parseBody(req)
		if err != nil {
			msg := "Cannot parse request body"
			if debug {
				msg += ": " + err.Error()
			}
			return nil, &schema.FieldError{Field: p.Name, Message: msg}
		}
		return data, nil
	}
}

// parseBody decodes JSON and form bodies. Forms are returned as url.Values
// so schemas convert their fields like query strings. An empty body yields
// nil.
func parseBody(req *Request) (any, error) {
	if len(bytes.TrimSpace(req.Body)) == 0 {
		return nil, nil
	}

	mediaType, params, err := mime.ParseMediaType(req.ContentType())
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == "application/x-www-form-urlencoded":
		return url.ParseQuery(string(req.Body))
	case mediaType == "multipart/form-data":
		form, err := multipart.NewReader(bytes.NewReader(req.Body), params["boundary"]).ReadForm(maxMultipartMemory)
		if err != nil {
			return nil, err
		}
		defer func() { _ = form.RemoveAll() }()
		return url.Values(form.Value), nil
	case mediaType == "", mediaType == MIMEApplicationJSON, strings.HasSuffix(mediaType, "+json"):
		var data any
		dec := json.NewDecoder(bytes.NewReader(req.Body))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			return nil, err
		}
		if dec.More() {
			return nil, fmt.Errorf("unexpected data after JSON value")
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported content type %q", mediaType)
	}
}
