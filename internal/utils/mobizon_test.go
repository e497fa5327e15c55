package utils

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestMobizonSendSMS(t *testing.T) {
	var gotRecipient, gotText, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotRecipient = r.PostForm.Get("recipient")
		gotText = r.PostForm.Get("text")
		gotKey = r.PostForm.Get("apiKey")
		fmt.Fprint(w, `{"code":0,"data":{"messageId":"m-1"}}`)
	}))
	defer srv.Close()

	c := NewClientWithOptions("key", "", false)
	c.BaseURL = srv.URL

	resp, err := c.SendSMS(context.Background(), "+15551230000", "code 123456")
	if err != nil {
		t.Fatalf("SendSMS() error = %v", err)
	}
	if resp.Data.MessageID != "m-1" {
		t.Errorf("MessageID = %q", resp.Data.MessageID)
	}
	if gotRecipient != "15551230000" || gotText != "code 123456" || gotKey != "key" {
		t.Errorf("form = %q %q %q", gotRecipient, gotText, gotKey)
	}
}

func TestMobizonSendSMSProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":2,"message":"bad recipient"}`)
	}))
	defer srv.Close()

	c := NewClientWithOptions("key", "KUB", false)
	c.BaseURL = srv.URL
	if _, err := c.SendSMS(context.Background(), "+1", "x"); err == nil {
		t.Fatal("SendSMS() error = nil, want provider error")
	}
}

func TestMobizonDryRunSkipsHTTP(t *testing.T) {
	c := NewClientWithOptions("", "", false)
	c.BaseURL = "http://127.0.0.1:0"
	if _, err := c.SendSMS(context.Background(), "+1", "x"); err != nil {
		t.Fatalf("dry-run SendSMS() error = %v", err)
	}
}

func TestMaskPhone(t *testing.T) {
	tests := map[string]string{
		"+77001234567": "***4567",
		"77001234567":  "***4567",
		"+123":         "***",
		"":             "***",
	}
	for in, want := range tests {
		if got := MaskPhone(in); got != want {
			t.Errorf("MaskPhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMobizonLogsMaskedRecipient(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"data":{"messageId":"m-2"}}`)
	}))
	defer srv.Close()

	c := NewClientWithOptions("key", "", false)
	c.BaseURL = srv.URL
	if _, err := c.SendSMS(context.Background(), "+77001234567", "code 1"); err != nil {
		t.Fatal(err)
	}
	if _, err := NewClientWithOptions("dry-run", "", true).SendSMS(context.Background(), "+77001234567", "code 1"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if strings.Contains(out, "77001234567") || strings.Count(out, "to=***4567") != 2 {
		t.Errorf("log output = %q", out)
	}
}
