package utils_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/joeydtaylor/makewaves/pkg/internal/utils"
)

func TestFilter(t *testing.T) {
	elems := []string{"Dev1/ao0", "Dev1/ai0", "Dev1/ao1"}
	got := utils.Filter(elems, func(s string) bool { return strings.Contains(s, "/ao") })

	expected := []string{"Dev1/ao0", "Dev1/ao1"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestContains(t *testing.T) {
	if !utils.Contains([]string{"a", "b"}, "b") {
		t.Error("expected b to be found")
	}
	if utils.Contains([]string{"a", "b"}, "c") {
		t.Error("did not expect c to be found")
	}
}

func TestNewRunID(t *testing.T) {
	a, b := utils.NewRunID(), utils.NewRunID()
	if a == b {
		t.Fatal("run ids should be unique")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("run id is not a uuid: %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Channel string `json:"channel"`
	}
	if err := utils.DecodeJSON(strings.NewReader(`{"channel":"Dev1/ao0"}`), &dst); err != nil {
		t.Fatal(err)
	}
	if dst.Channel != "Dev1/ao0" {
		t.Fatalf("got %q", dst.Channel)
	}
	if err := utils.DecodeJSON(strings.NewReader(`{"chan":"x"}`), &dst); err == nil {
		t.Fatal("expected unknown field error")
	}
}
