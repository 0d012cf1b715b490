package cache

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/nhle/worktrack/internal/docstore"
	"github.com/nhle/worktrack/internal/model"
)

var (
	assignmentType = reflect.TypeOf(model.Assignment{})
	timeType       = reflect.TypeOf(time.Time{})
	stringsType    = reflect.TypeOf([]string{})
)

// assignmentHook normalizes every legacy "assigned to" shape.
func assignmentHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != assignmentType {
		return data, nil
	}
	return model.NormalizeAssignment(data), nil
}

// timeHook accepts stored timestamps, RFC 3339 and date-only strings.
func timeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return model.ParseTime(v)
	case float64:
		return time.UnixMilli(int64(v)).UTC(), nil
	}
	return data, nil
}

// stringListHook splits the legacy comma-separated tag string.
func stringListHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != stringsType || from.Kind() != reflect.String {
		return data, nil
	}
	var out []string
	for _, part := range strings.Split(data.(string), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

func decode(doc docstore.Document, out any) error {
	data := doc.Data()

	// A blank due date means none.
	if s, ok := data["dueDate"].(string); ok && strings.TrimSpace(s) == "" {
		delete(data, "dueDate")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			assignmentHook,
			timeHook,
			stringListHook,
		),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("decoding %s/%s: %w", doc.Collection, doc.ID, err)
	}
	return nil
}

// DecodeWorkItem converts a stored document into a WorkItem.
func DecodeWorkItem(doc docstore.Document) (model.WorkItem, error) {
	var w model.WorkItem
	err := decode(doc, &w)
	return w, err
}

// DecodeProject converts a stored document into a Project.
func DecodeProject(doc docstore.Document) (model.Project, error) {
	var p model.Project
	err := decode(doc, &p)
	return p, err
}

// DecodeService converts a stored document into a Service.
func DecodeService(doc docstore.Document) (model.Service, error) {
	var s model.Service
	err := decode(doc, &s)
	return s, err
}

// DecodeUser converts a stored document into a User. Records without a uid
// field are keyed by document id.
func DecodeUser(doc docstore.Document) (model.User, error) {
	var u model.User
	if err := decode(doc, &u); err != nil {
		return u, err
	}
	if u.ID == "" {
		u.ID = doc.ID
	}
	return u, nil
}

// DecodeNotification converts a stored document into a Notification.
func DecodeNotification(doc docstore.Document) (model.Notification, error) {
	var n model.Notification
	err := decode(doc, &n)
	return n, err
}
