package model

import (
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDateOf(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	in := time.Date(2024, 5, 24, 1, 30, 0, 0, tehran) // 2024-05-23 22:00 UTC
	got := DateOf(in)
	want := time.Date(2024, 5, 24, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOf() = %v, want %v", got, want)
	}
}

func TestNormalizeStay(t *testing.T) {
	tests := []struct {
		name    string
		in, out string
		want    Stay
		wantErr error
	}{
		{name: "regular", in: "2024-05-24", out: "2024-05-26", want: Stay{day("2024-05-24"), day("2024-05-26")}},
		{name: "same day is one night", in: "2024-05-24", out: "2024-05-24", want: Stay{day("2024-05-24"), day("2024-05-25")}},
		{name: "inverted", in: "2024-05-26", out: "2024-05-24", wantErr: ErrStayOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeStay(day(tt.in), day(tt.out))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NormalizeStay() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (!got.CheckIn.Equal(tt.want.CheckIn) || !got.CheckOut.Equal(tt.want.CheckOut)) {
				t.Errorf("NormalizeStay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeStayIgnoresTimeOfDay(t *testing.T) {
	in := time.Date(2024, 5, 24, 15, 0, 0, 0, time.UTC)
	out := time.Date(2024, 5, 24, 9, 0, 0, 0, time.UTC)
	got, err := NormalizeStay(in, out)
	if err != nil {
		t.Fatalf("NormalizeStay() error = %v", err)
	}
	if got.Nights() != 1 {
		t.Errorf("Nights() = %d, want 1", got.Nights())
	}
}

func TestStayOverlaps(t *testing.T) {
	base := Stay{day("2024-05-25"), day("2024-05-27")}
	tests := []struct {
		name  string
		other Stay
		want  bool
	}{
		{"identical", base, true},
		{"check-out on check-in day", Stay{day("2024-05-23"), day("2024-05-25")}, false},
		{"check-in on check-out day", Stay{day("2024-05-27"), day("2024-05-29")}, false},
		{"overlaps start", Stay{day("2024-05-24"), day("2024-05-26")}, true},
		{"overlaps end", Stay{day("2024-05-26"), day("2024-05-28")}, true},
		{"contains", Stay{day("2024-05-20"), day("2024-05-30")}, true},
		{"inside", Stay{day("2024-05-25"), day("2024-05-26")}, true},
		{"disjoint", Stay{day("2024-06-01"), day("2024-06-03")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Overlaps(tt.other); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(base); got != tt.want {
				t.Errorf("Overlaps() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDays(t *testing.T) {
	got := Days(day("2024-02-27"), day("2024-03-01"))
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}
	if len(got) != len(want) {
		t.Fatalf("len(Days()) = %d, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Format(DateLayout) != want[i] {
			t.Errorf("Days()[%d] = %s, want %s", i, d.Format(DateLayout), want[i])
		}
	}
	if got := Days(day("2024-03-02"), day("2024-03-01")); got != nil {
		t.Errorf("Days() with end before start = %v, want nil", got)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "24-05-2024", "2024-05-24T10:00:00Z"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) error = nil, want error", s)
		}
	}
}
