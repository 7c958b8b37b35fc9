package services

import (
	"errors"
	"testing"

	"github.com/voltastudio/volta-backend/internal/platform/apperr"
)

func TestNormalizeAspectRatio(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"", "match_input_image", nil},
		{"match_input_image", "match_input_image", nil},
		{"16:9", "16:9", nil},
		{" 9:16 ", "9:16", nil},
		{"21:9", "21:9", nil},
		{"5:4", "", apperr.ErrInvalidArgument},
		{"wide", "", apperr.ErrInvalidArgument},
	}
	for _, tc := range cases {
		got, err := NormalizeAspectRatio(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("NormalizeAspectRatio(%q): want error %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NormalizeAspectRatio(%q): unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeAspectRatio(%q): want=%q got=%q", tc.in, got, tc.want)
		}
	}
}
