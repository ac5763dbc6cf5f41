package tool

import (
	"strings"
	"testing"
)

func TestScheduleTransportAllFieldsPresent(t *testing.T) {
	t.Parallel()

	out := executeScheduleTransport(map[string]any{
		"produce":     "maize",
		"quantity":    "10 bags",
		"destination": "Kano",
	})
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	for _, want := range []string{"10 bags", "maize", "Kano"} {
		if !strings.Contains(out.Result, want) {
			t.Fatalf("confirmation missing %q: %s", want, out.Result)
		}
	}
}

func TestScheduleTransportMissingFieldsBlocked(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		args    map[string]any
		missing []string
	}{
		{
			name:    "no destination",
			args:    map[string]any{"produce": "rice", "quantity": "5 bags"},
			missing: []string{"destination"},
		},
		{
			name:    "empty quantity",
			args:    map[string]any{"produce": "rice", "quantity": "  ", "destination": "Lagos"},
			missing: []string{"quantity"},
		},
		{
			name:    "everything missing",
			args:    map[string]any{},
			missing: []string{"produce", "quantity", "destination"},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := executeScheduleTransport(tc.args)
			if out.Error == "" {
				t.Fatalf("expected error, got confirmation: %s", out.Result)
			}
			if out.Result != "" {
				t.Fatalf("no confirmation may be produced, got: %s", out.Result)
			}
			for _, field := range tc.missing {
				if !strings.Contains(out.Error, field) {
					t.Fatalf("error does not name missing field %q: %s", field, out.Error)
				}
			}
		})
	}
}

func TestTransportInfoRates(t *testing.T) {
	t.Parallel()

	out := executeTransportInfo(map[string]any{"query": "what is the cost to Kano"})
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	if !strings.Contains(out.Result, "N1500") {
		t.Fatalf("expected regional rate in reply: %s", out.Result)
	}
}
