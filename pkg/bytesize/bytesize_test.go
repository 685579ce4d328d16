package bytesize

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Size
	}{
		{"0", 0},
		{"2048", 2048},
		{"512B", 512},
		{"1KB", KiB},
		{"1KiB", KiB},
		{"500kb", 500 * KiB},
		{"100MB", 100 * MiB},
		{"1.5GB", Size(1.5 * float64(GiB))},
		{"2 TB", 2 * TiB},
		{" 5M ", 5 * MiB},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "MB", "5XB", "1..5MB", "abc"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) should fail", in)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Size
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{KiB, "1KB"},
		{1536, "1.5KB"},
		{MiB, "1MB"},
		{100 * MiB, "100MB"},
		{GiB + GiB/2, "1.5GB"},
		{2 * TiB, "2TB"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
