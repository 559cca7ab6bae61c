package validator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Title string `json:"title" validate:"required,max=10,singleline"`
	Date  string `json:"event_date" validate:"required,isodate"`
	Time  string `json:"event_time" validate:"clock"`
	Seats int    `form:"seats" validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"ok", sample{Title: "Run", Date: "2026-12-01", Time: "18:30"}, ""},
		{"ok without time", sample{Title: "Run", Date: "2026-12-01"}, ""},
		{"missing title", sample{Date: "2026-12-01"}, "title is required"},
		{"long title", sample{Title: "a very long title", Date: "2026-12-01"}, "title must be at most 10"},
		{"bad date", sample{Title: "Run", Date: "01/12/2026"}, "event_date must look like 2006-01-02"},
		{"bad time", sample{Title: "Run", Date: "2026-12-01", Time: "25:99"}, "event_time must look like 15:04"},
		{"title with line break", sample{Title: "Run\r\nBcc", Date: "2026-12-01"}, "title must not contain line breaks"},
		{"negative seats", sample{Title: "Run", Date: "2026-12-01", Seats: -1}, "seats must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(context.Background(), tt.in)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	err := Validate(context.Background(), sample{Time: "noon", Seats: -2})

	var errs Errors
	if !errors.As(err, &errs) {
		t.Fatalf("err = %T, want Errors", err)
	}
	got := map[string]string{}
	for _, fe := range errs {
		got[fe.Field] = fe.Rule
	}
	want := map[string]string{"title": "required", "event_date": "required", "event_time": "clock", "seats": "gte"}
	for field, rule := range want {
		if got[field] != rule {
			t.Errorf("%s: rule = %q, want %q", field, got[field], rule)
		}
	}
}
