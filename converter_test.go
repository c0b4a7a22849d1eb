package qrda2qpp

// Notes:
// - Pipeline stages are swapped through test-only options (withDecoder,
//   withValidator, withEncoder) to reach failure paths that a real document
//   cannot trigger once validation passes.
// - Fixtures live in testdata/ and are shared with the internal packages.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-qrda2qpp/internal/decode"
	"github.com/alnah/go-qrda2qpp/internal/jsonw"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/report"
	"github.com/alnah/go-qrda2qpp/internal/validate"
)

// ---------------------------------------------------------------------------
// Test doubles and test-only options
// ---------------------------------------------------------------------------

type stubValidator struct {
	errs  []report.ValidationError
	calls int
	mu    sync.Mutex
}

func (s *stubValidator) Validate(*node.Tree) []report.ValidationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.errs
}

type panicValidator struct{}

func (panicValidator) Validate(*node.Tree) []report.ValidationError {
	panic("validator exploded")
}

type stubEncoder struct {
	obj *jsonw.Object
	err error
}

func (s *stubEncoder) Encode(*node.Tree) (*jsonw.Object, error) {
	return s.obj, s.err
}

func withValidator(v treeValidator) Option {
	return func(c *Converter) {
		c.validator = v
	}
}

func withEncoder(e treeEncoder) Option {
	return func(c *Converter) {
		c.encoder = e
	}
}

func withDecoder(d documentDecoder) Option {
	return func(c *Converter) {
		c.decoder = d
	}
}

func withReportMarshaler(fn func(*report.AllErrors) ([]byte, error)) Option {
	return func(c *Converter) {
		c.marshalReport = fn
	}
}

func withOutputMarshaler(fn func(*jsonw.Object) ([]byte, error)) Option {
	return func(c *Converter) {
		c.marshalOutput = fn
	}
}

type stubDecoder struct {
	err error
}

func (s *stubDecoder) Decode([]byte) (*decode.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &decode.Result{Tree: node.NewTree()}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return data
}

func newConverter(t *testing.T, opts ...Option) *Converter {
	t.Helper()
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func convertFixture(t *testing.T, c *Converter, name string) *Result {
	t.Helper()
	res, err := c.Convert(context.Background(), Input{Source: name, Data: readFixture(t, name)})
	if err != nil {
		t.Fatalf("Convert(%s) error = %v", name, err)
	}
	return res
}

// ---------------------------------------------------------------------------
// TestConvert_Fixtures - Status per input class
// ---------------------------------------------------------------------------

func TestConvert_Fixtures(t *testing.T) {
	t.Parallel()

	conv := newConverter(t)

	tests := []struct {
		name      string
		fixture   string
		status    TransformationStatus
		wantText  string
		wantCause error
	}{
		{name: "valid document", fixture: "valid.xml", status: Success},
		{name: "garbage around templates", fixture: "garbage.xml", status: Success},
		{name: "not xml", fixture: "non-xml.xml", status: NonRecoverable, wantText: NotValidXMLDocument, wantCause: ErrInvalidDocument},
		{name: "not qrda-iii", fixture: "not-qrda.xml", status: NonRecoverable, wantText: NotQRDADocument, wantCause: ErrNotQRDA},
		{name: "negative denominator", fixture: "bad-denominator.xml", status: ValidationError, wantText: validate.AggregateCountNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := convertFixture(t, conv, tt.fixture)
			if res.Status != tt.status {
				t.Fatalf("Status = %v, want %v (errors: %v)", res.Status, tt.status, res.Errors.Texts())
			}
			if res.Source != tt.fixture {
				t.Errorf("Source = %q, want %q", res.Source, tt.fixture)
			}

			if tt.status == Success {
				if !json.Valid(res.Output) {
					t.Errorf("Output is not valid JSON: %s", res.Output)
				}
				if res.Errors != nil || res.ErrorJSON != nil {
					t.Errorf("success carries an error report: %s", res.ErrorJSON)
				}
				if !bytes.Equal(res.Payload(), res.Output) {
					t.Error("Payload() should return Output on success")
				}
				return
			}

			if res.Output != nil {
				t.Errorf("failed conversion produced output: %s", res.Output)
			}
			if !slices.Contains(res.Errors.Texts(), tt.wantText) {
				t.Errorf("errors = %v, want one containing %q", res.Errors.Texts(), tt.wantText)
			}
			if !bytes.Contains(res.ErrorJSON, []byte(tt.wantText)) {
				t.Errorf("ErrorJSON = %s, want it to mention %q", res.ErrorJSON, tt.wantText)
			}
			if !bytes.Equal(res.Payload(), res.ErrorJSON) {
				t.Error("Payload() should return ErrorJSON on failure")
			}
			if tt.wantCause != nil && !errors.Is(res.Cause, tt.wantCause) {
				t.Errorf("Cause = %v, want %v", res.Cause, tt.wantCause)
			}
		})
	}
}

func TestConvert_ErrorReportShape(t *testing.T) {
	t.Parallel()

	res := convertFixture(t, newConverter(t), "not-qrda.xml")

	var got map[string]any
	if err := json.Unmarshal(res.ErrorJSON, &got); err != nil {
		t.Fatalf("ErrorJSON is not JSON: %v", err)
	}
	want := map[string]any{
		"errorSources": []any{
			map[string]any{
				"sourceIdentifier": "not-qrda.xml",
				"validationErrors": []any{
					map[string]any{"errorText": NotQRDADocument},
				},
			},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestConvert_ValidOutput(t *testing.T) {
	t.Parallel()

	res := convertFixture(t, newConverter(t), "valid.xml")

	var got struct {
		ProgramName     string `json:"programName"`
		TIN             string `json:"taxpayerIdentificationNumber"`
		PerformanceYear int    `json:"performanceYear"`
		MeasurementSets []struct {
			Category string `json:"category"`
		} `json:"measurementSets"`
	}
	if err := json.Unmarshal(res.Output, &got); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if got.ProgramName != "mips" || got.TIN != "123456789" || got.PerformanceYear != 2017 {
		t.Errorf("identity = %+v", got)
	}
	var cats []string
	for _, s := range got.MeasurementSets {
		cats = append(cats, s.Category)
	}
	if diff := cmp.Diff([]string{"ia", "quality"}, cats); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Input - Data, Reader and empty input
// ---------------------------------------------------------------------------

func TestConvert_Input(t *testing.T) {
	t.Parallel()

	conv := newConverter(t)
	valid := readFixture(t, "valid.xml")

	t.Run("reader", func(t *testing.T) {
		t.Parallel()

		res, err := conv.Convert(context.Background(), Input{Source: "r.xml", Reader: bytes.NewReader(valid)})
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if res.Status != Success {
			t.Errorf("Status = %v, want success", res.Status)
		}
	})

	t.Run("data wins over reader", func(t *testing.T) {
		t.Parallel()

		res, err := conv.Convert(context.Background(), Input{
			Source: "d.xml",
			Data:   valid,
			Reader: iotest.ErrReader(errors.New("must not be read")),
		})
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if res.Status != Success {
			t.Errorf("Status = %v, want success", res.Status)
		}
	})

	t.Run("reader failure", func(t *testing.T) {
		t.Parallel()

		res, err := conv.Convert(context.Background(), Input{Source: "x.xml", Reader: iotest.ErrReader(errors.New("disk gone"))})
		if !errors.Is(err, ErrReadInput) {
			t.Errorf("error = %v, want ErrReadInput", err)
		}
		if res != nil {
			t.Errorf("result = %+v, want nil", res)
		}
	})

	t.Run("empty input is not xml", func(t *testing.T) {
		t.Parallel()

		res, err := conv.Convert(context.Background(), Input{Source: "empty.xml"})
		if err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
		if res.Status != NonRecoverable || !errors.Is(res.Cause, ErrInvalidDocument) {
			t.Errorf("got %v / %v, want non_recoverable / ErrInvalidDocument", res.Status, res.Cause)
		}
	})
}

func TestConvert_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newConverter(t).Convert(ctx, Input{Source: "valid.xml", Data: readFixture(t, "valid.xml")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Options - Validation and defaults toggles
// ---------------------------------------------------------------------------

func TestConvert_WithoutValidation(t *testing.T) {
	t.Parallel()

	v := &stubValidator{errs: []report.ValidationError{report.New("never", "")}}
	conv := newConverter(t, WithValidation(false), withValidator(v))

	res := convertFixture(t, conv, "bad-denominator.xml")
	if res.Status != Success {
		t.Fatalf("Status = %v, want success", res.Status)
	}
	if v.calls != 0 {
		t.Errorf("validator called %d times, want 0", v.calls)
	}
	if !bytes.Contains(res.Output, []byte(`"performanceNotMet": -55`)) {
		t.Errorf("Output should carry the unvalidated denominator:\n%s", res.Output)
	}
}

func TestConvert_ValidatorErrorsReported(t *testing.T) {
	t.Parallel()

	errs := []report.ValidationError{report.New("one", "/a"), report.New("two", "/b")}
	conv := newConverter(t, withValidator(&stubValidator{errs: errs}))

	res := convertFixture(t, conv, "valid.xml")
	if res.Status != ValidationError {
		t.Fatalf("Status = %v, want validation_error", res.Status)
	}
	if diff := cmp.Diff(errs, res.Errors.ErrorSources[0].ValidationErrors); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	if res.Cause != nil {
		t.Errorf("Cause = %v, want nil for rule violations", res.Cause)
	}
}

func TestConvert_WithLoggerNilIgnored(t *testing.T) {
	t.Parallel()

	conv := newConverter(t, WithLogger(nil))
	if conv.logger == nil {
		t.Fatal("WithLogger(nil) cleared the logger")
	}
}

// ---------------------------------------------------------------------------
// TestConvert_InternalFailures - Encoder, marshaler and panic paths
// ---------------------------------------------------------------------------

func TestConvert_InternalFailures(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	tests := []struct {
		name      string
		opts      []Option
		wantErr   error
		wantCause error
	}{
		{
			name:      "encoder failure",
			opts:      []Option{withEncoder(&stubEncoder{err: errBoom})},
			wantCause: ErrEncode,
		},
		{
			name: "output marshal failure",
			opts: []Option{
				withEncoder(&stubEncoder{obj: jsonw.New()}),
				withOutputMarshaler(func(*jsonw.Object) ([]byte, error) { return nil, errBoom }),
			},
			wantCause: ErrEncode,
		},
		{
			name:      "validator panic",
			opts:      []Option{withValidator(panicValidator{})},
			wantErr:   ErrInternal,
			wantCause: ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conv := newConverter(t, tt.opts...)
			res, err := conv.Convert(context.Background(), Input{Source: "valid.xml", Data: readFixture(t, "valid.xml")})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Convert() error = %v, want %v", err, tt.wantErr)
			}
			if res == nil {
				t.Fatal("Convert() returned nil result")
			}
			if res.Status != NonRecoverable {
				t.Errorf("Status = %v, want non_recoverable", res.Status)
			}
			if diff := cmp.Diff([]string{UnexpectedError}, res.Errors.Texts()); diff != "" {
				t.Errorf("errors mismatch (-want +got):\n%s", diff)
			}
			if !errors.Is(res.Cause, tt.wantCause) {
				t.Errorf("Cause = %v, want %v", res.Cause, tt.wantCause)
			}
		})
	}
}

func TestConvert_ReportMarshalFailure(t *testing.T) {
	t.Parallel()

	conv := newConverter(t,
		withDecoder(&stubDecoder{err: decode.ErrInvalidXML}),
		withReportMarshaler(func(*report.AllErrors) ([]byte, error) {
			return nil, fmt.Errorf("marshaling error report: %w", &json.UnsupportedValueError{Str: "x"})
		}),
	)

	res, err := conv.Convert(context.Background(), Input{Source: "a.xml", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	want := `{ "exception": "UnsupportedValueError" }`
	if string(res.ErrorJSON) != want {
		t.Errorf("ErrorJSON = %s, want %s", res.ErrorJSON, want)
	}
	if res.Errors == nil || res.Errors.Count() != 1 {
		t.Errorf("structured report should survive a marshal failure: %+v", res.Errors)
	}
}

func TestExceptionPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "pointer type", err: &json.UnsupportedValueError{}, want: `{ "exception": "UnsupportedValueError" }`},
		{name: "errors.New", err: errors.New("x"), want: `{ "exception": "errorString" }`},
		{
			name: "wrapped names innermost",
			err:  fmt.Errorf("outer: %w", fmt.Errorf("marshaling error report: %w", &json.UnsupportedTypeError{})),
			want: `{ "exception": "UnsupportedTypeError" }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := string(exceptionPayload(tt.err)); got != tt.want {
				t.Errorf("exceptionPayload() = %s, want %s", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestConvert_Concurrent - Shared converter
// ---------------------------------------------------------------------------

func TestConvert_Concurrent(t *testing.T) {
	t.Parallel()

	conv := newConverter(t)
	fixtures := map[string]TransformationStatus{
		"valid.xml":           Success,
		"non-xml.xml":         NonRecoverable,
		"not-qrda.xml":        NonRecoverable,
		"bad-denominator.xml": ValidationError,
	}
	data := make(map[string][]byte, len(fixtures))
	for name := range fixtures {
		data[name] = readFixture(t, name)
	}

	var wg sync.WaitGroup
	errCh := make(chan string, 64)
	for range 16 {
		for name, want := range fixtures {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := conv.Convert(context.Background(), Input{Source: name, Data: data[name]})
				if err != nil {
					errCh <- err.Error()
					return
				}
				if res.Status != want {
					errCh <- name + ": " + res.Status.String()
				}
			}()
		}
	}
	wg.Wait()
	close(errCh)

	var failures []string
	for msg := range errCh {
		failures = append(failures, msg)
	}
	if len(failures) > 0 {
		t.Errorf("concurrent conversions failed:\n%s", strings.Join(failures, "\n"))
	}
}
