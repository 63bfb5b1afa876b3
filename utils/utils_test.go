package utils_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brightroom/brightroom/utils"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G'}, "png"},
		{"webp", append([]byte("RIFF\x00\x00\x00\x00"), []byte("WEBP")...), "webp"},
		{"short", []byte{0xFF}, "unknown"},
		{"text", []byte("hello, world"), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := utils.DetectFormat(tc.data); got != tc.want {
				t.Errorf("DetectFormat = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClampUint8(t *testing.T) {
	cases := []struct {
		in   float64
		want uint8
	}{
		{-5, 0},
		{0, 0},
		{94.4, 94},
		{94.6, 95},
		{255, 255},
		{300, 255},
	}
	for _, tc := range cases {
		if got := utils.ClampUint8(tc.in); got != tc.want {
			t.Errorf("ClampUint8(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLimitedReader_ExactLimitPasses(t *testing.T) {
	payload := strings.Repeat("a", 100)
	lr := &utils.LimitedReader{R: strings.NewReader(payload), Max: 100}

	buf, err := utils.DrainReader(context.Background(), lr, 7)
	if err != nil {
		t.Fatalf("DrainReader: %v", err)
	}
	defer utils.ReleaseBuffer(buf)
	if buf.Len() != 100 {
		t.Errorf("read %d bytes, want 100", buf.Len())
	}
}

func TestLimitedReader_Oversize(t *testing.T) {
	payload := strings.Repeat("a", 101)
	lr := &utils.LimitedReader{R: strings.NewReader(payload), Max: 100}

	_, err := utils.DrainReader(context.Background(), lr, 7)
	if !errors.Is(err, utils.ErrLimitExceeded) {
		t.Fatalf("err = %v, want ErrLimitExceeded", err)
	}
}

func TestLimitedReader_NoLimit(t *testing.T) {
	lr := &utils.LimitedReader{R: strings.NewReader("abc"), Max: 0}
	buf, err := utils.DrainReader(context.Background(), lr, 0)
	if err != nil {
		t.Fatalf("DrainReader: %v", err)
	}
	defer utils.ReleaseBuffer(buf)
	if buf.String() != "abc" {
		t.Errorf("read %q, want abc", buf.String())
	}
}

func TestCloneBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := utils.CloneBytes(src)
	src[0] = 9
	if dst[0] != 1 {
		t.Error("clone shares backing array with source")
	}
}

func TestDrainReader_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := utils.DrainReader(ctx, bytes.NewReader(make([]byte, 10)), 4)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
