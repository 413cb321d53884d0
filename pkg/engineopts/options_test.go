package engineopts

import "testing"

func TestDefaultOptions(t *testing.T) {
	o := Default()
	if o.MaxResultRows != 0 {
		t.Errorf("expected default MaxResultRows 0, got %d", o.MaxResultRows)
	}
	if !o.NullsFirstDefault() {
		t.Error("expected default NullsFirstDefault true")
	}
	if o.RejectsUnknownSettings() {
		t.Error("expected default UnknownSettings to ignore, not reject")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	o, err := Load([]byte("max_result_rows: 100\ndefault_nulls: last\nunknown_settings: error\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if o.MaxResultRows != 100 {
		t.Errorf("expected MaxResultRows 100, got %d", o.MaxResultRows)
	}
	if o.NullsFirstDefault() {
		t.Error("expected NullsFirstDefault false after default_nulls: last")
	}
	if !o.RejectsUnknownSettings() {
		t.Error("expected RejectsUnknownSettings true after unknown_settings: error")
	}
	if o.MaxExecutionTimeMS != 0 {
		t.Errorf("expected MaxExecutionTimeMS to keep its default 0, got %d", o.MaxExecutionTimeMS)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad default_nulls", "default_nulls: sideways\n"},
		{"bad unknown_settings", "unknown_settings: maybe\n"},
		{"negative max_result_rows", "max_result_rows: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.yaml)); err == nil {
				t.Errorf("expected Load to reject %q", tt.yaml)
			}
		})
	}
}

func TestIsKnownSettingKey(t *testing.T) {
	if !IsKnownSettingKey("MAX_RESULT_ROWS") {
		t.Error("expected max_result_rows to be recognized case-insensitively")
	}
	if IsKnownSettingKey("join_algorithm") {
		t.Error("expected an unrecognized key to report false")
	}
}
