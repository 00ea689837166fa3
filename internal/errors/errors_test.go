package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "render error",
			code:    "F001",
			wantMsg: "Component render failed",
			wantCat: CategoryRender,
		},
		{
			name:    "patch error",
			code:    "F020",
			wantMsg: "DOM patch failed",
			wantCat: CategoryPatch,
		},
		{
			name:    "config error",
			code:    "F071",
			wantMsg: "Invalid configuration file",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "F999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "unknown flag %q", "--x")
	if err.Message != `unknown flag "--x"` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{New("F001"), "F001: Component render failed"},
		{&Error{Message: "test error"}, "test error"},
		{New("F072").WithField("inspector.addr"), "F072: inspector.addr: Invalid configuration value"},
		{New("F060").Wrap(fmt.Errorf("boom")), "F060: Snapshot not found: boom"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestError_Wrap(t *testing.T) {
	sentinel := stderrors.New("sentinel")
	err := New("F020").Wrap(fmt.Errorf("apply: %w", sentinel))
	if !stderrors.Is(err, sentinel) {
		t.Error("errors.Is should see through Wrap")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "F001") != nil {
		t.Error("FromError(nil) should be nil")
	}

	plain := stderrors.New("plain")
	fe := FromError(plain, "F061")
	if fe.Code != "F061" || fe.Wrapped != plain {
		t.Errorf("FromError(plain) = %+v", fe)
	}

	coded := New("F090")
	if got := FromError(fmt.Errorf("ctx: %w", coded), "F001"); got != coded {
		t.Errorf("FromError should return the wrapped *Error, got %+v", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("F004").Wrap(stderrors.New("fiber: component destroyed"))
	out := err.Format()
	// Detail lines are wrapped; compare with whitespace collapsed.
	flat := strings.Join(strings.Fields(out), " ")

	for _, want := range []string{
		"ERROR F004: Component destroyed",
		"has already been unmounted",
		"Cause: fiber: component destroyed",
		"Hint: Check Instance.Status()",
	} {
		if !strings.Contains(flat, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Format() contains ANSI codes with colors disabled")
	}
}

func TestFormatJSON(t *testing.T) {
	err := New("F072").WithField("frames.interval").Wrap(stderrors.New("must be positive"))
	var v map[string]string
	if jerr := json.Unmarshal([]byte(err.FormatJSON()), &v); jerr != nil {
		t.Fatalf("invalid JSON: %v", jerr)
	}
	if v["code"] != "F072" || v["field"] != "frames.interval" || v["cause"] != "must be positive" {
		t.Errorf("FormatJSON() = %v", v)
	}
}

func TestFprint(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var buf bytes.Buffer
	Fprint(&buf, stderrors.New("plain failure"))
	if !strings.Contains(buf.String(), "ERROR: plain failure") {
		t.Errorf("Fprint(plain) = %q", buf.String())
	}

	buf.Reset()
	Fprint(&buf, fmt.Errorf("run: %w", New("F091")))
	if !strings.Contains(buf.String(), "ERROR F091: Server failed") {
		t.Errorf("Fprint(coded) = %q", buf.String())
	}
}

func TestSetColorsFor(t *testing.T) {
	defer EnableColors()

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	EnableColors()
	SetColorsFor(f)
	if colorEnabled {
		t.Error("colors enabled for a regular file")
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("no codes registered")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("codes not sorted: %q before %q", codes[i-1], codes[i])
		}
	}
	for _, code := range codes {
		tmpl, _ := GetTemplate(code)
		if tmpl.Message == "" || tmpl.Category == "" {
			t.Errorf("%s: incomplete template %+v", code, tmpl)
		}
	}
}

func TestRegister(t *testing.T) {
	Register("F998", ErrorTemplate{Category: CategoryCLI, Message: "Custom"})
	defer delete(registry, "F998")

	if got := New("F998").Message; got != "Custom" {
		t.Errorf("Message = %q, want Custom", got)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven eight nine ten", 15)
	for _, line := range lines {
		if len(line) > 15 {
			t.Errorf("line %q longer than 15", line)
		}
	}
	if got := strings.Join(lines, " "); got != "one two three four five six seven eight nine ten" {
		t.Errorf("wrapped text lost words: %q", got)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}
