package export

import "testing"

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "00:00:01,500", want: "0:0:1.500"},
		{in: "01:02:03,450", want: "1:2:3.450"},
		{in: "00:00:05", want: "0:0:5"},
		{in: "23:59:59,999", want: "23:59:59.999"},
		// Hour overflow folds into a day count.
		{in: "24:00:00,000", want: "1 0:0:0.000"},
		{in: "26:00:01,5", want: "1 2:0:1.5"},
		{in: "50:10:09,1", want: "2 2:10:9.1"},
		{in: "1:2", wantErr: true},
		{in: "aa:bb:cc", wantErr: true},
		{in: "00:00:xx,1", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeTime(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeTime(%q) error = nil, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeTime(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("normalizeTime(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
