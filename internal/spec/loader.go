package spec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError        ErrorCode = "InputError"
	NetworkError      ErrorCode = "NetworkError"
	ParseError        ErrorCode = "ParseError"
	MissingFieldError ErrorCode = "MissingFieldError"
	ReferenceError    ErrorCode = "ReferenceError"
	ConversionError   ErrorCode = "ConversionError"
)

// MalformedSpecError is returned for every document that cannot be turned
// into a Spec. No partially built model accompanies it.
type MalformedSpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // URL, file path or "<inline>"
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *MalformedSpecError) Error() string { return e.Message }
func (e *MalformedSpecError) Unwrap() error { return e.Cause }

// InlineLocation labels documents passed as raw text.
const InlineLocation = "<inline>"

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds each HTTP request.
	HTTPTimeout time.Duration
	// MaxRetries for transient HTTP failures (>=500, 429, or network errors).
	MaxRetries int
	// BackoffBase is the base delay for exponential backoff.
	BackoffBase time.Duration
	// Logger receives version detection details and lint warnings.
	Logger logrus.FieldLogger
	// UserAgent is sent with remote fetches when set.
	UserAgent string
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout: 10 * time.Second,
		MaxRetries:  3,
		BackoffBase: 200 * time.Millisecond,
		Logger:      discardLogger(),
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithMaxRetries(n int) Option            { return func(s *Settings) { s.MaxRetries = n } }
func WithBackoffBase(d time.Duration) Option { return func(s *Settings) { s.BackoffBase = d } }
func WithLogger(l logrus.FieldLogger) Option { return func(s *Settings) { s.Logger = l } }
func WithUserAgent(ua string) Option         { return func(s *Settings) { s.UserAgent = ua } }

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Document is a dereferenced OpenAPI document ready for Normalize.
// Swagger 2.x input is converted to the v3 object model; the v2-only
// server fields are kept aside in Swagger.
type Document struct {
	Version  int
	Location string
	OpenAPI  *openapi3.T
	Swagger  *SwaggerOrigin
	// Warnings holds non-fatal lint findings.
	Warnings []string

	order keyOrder
}

// SwaggerOrigin carries the Swagger 2.x fields used to synthesize a server.
type SwaggerOrigin struct {
	Host     string
	BasePath string
	Schemes  []string
}

// Parse loads input and normalizes it in one step.
func Parse(ctx context.Context, input string, opts ...Option) (*Spec, error) {
	doc, err := Load(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return Normalize(doc)
}

// Load reads and dereferences a Swagger 2.x or OpenAPI 3.x document.
//
// input may be an http/https URL, raw JSON or YAML text, or a local file
// path. Internal $refs are resolved; external references are rejected.
func Load(ctx context.Context, input string, opts ...Option) (*Document, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, &MalformedSpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Logger == nil {
		settings.Logger = discardLogger()
	}
	log := settings.Logger

	if looksLikeDocument(trimmed) {
		log.Debug("loading inline document")
		return parseDocument(ctx, []byte(trimmed), InlineLocation, settings)
	}

	// Classify input as URL or file path.
	u, uerr := url.Parse(trimmed)
	if uerr == nil && u.Scheme != "" && u.Host != "" {
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return nil, &MalformedSpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: trimmed}
		}
		log.WithField("url", trimmed).Debug("fetching document")
		raw, err := fetchWithRetry(ctx, trimmed, settings)
		if err != nil {
			return nil, &MalformedSpecError{Code: NetworkError, Message: fmt.Sprintf("fetch %s: %v", trimmed, err), Location: trimmed, Cause: err}
		}
		return parseDocument(ctx, raw, trimmed, settings)
	}
	if uerr == nil && strings.EqualFold(u.Scheme, "file") {
		return nil, &MalformedSpecError{Code: InputError, Message: "spec: file:// URLs are not supported, pass the path directly", Location: trimmed}
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, &MalformedSpecError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: trimmed, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &MalformedSpecError{Code: InputError, Message: fmt.Sprintf("spec: input is neither a URL, a document nor a readable file: %v", err), Location: abs, Cause: err}
	}
	log.WithField("path", abs).Debug("loading document from file")
	return parseDocument(ctx, raw, abs, settings)
}

// looksLikeDocument reports whether input is document text rather than a
// URL or path.
func looksLikeDocument(input string) bool {
	if strings.HasPrefix(input, "{") || strings.ContainsAny(input, "\n\r") {
		return true
	}
	return strings.HasPrefix(input, "openapi:") || strings.HasPrefix(input, "swagger:")
}

func parseDocument(ctx context.Context, raw []byte, location string, settings Settings) (*Document, error) {
	log := settings.Logger.WithField("location", location)

	// Key order is indexed from the bytes as given, before any rewrite.
	order := indexKeyOrder(raw)

	var root map[string]any
	if err := yaml.Unmarshal(raw, &root); err != nil {
		// JSON allows repeated keys with the last one winning; YAML does not.
		if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) || json.Unmarshal(raw, &root) != nil {
			return nil, &MalformedSpecError{Code: ParseError, Message: fmt.Sprintf("parse spec: %v", err), Location: location, Cause: err}
		}
		log.Warn("document repeats object keys, keeping the last value of each")
		if raw, err = json.Marshal(root); err != nil {
			return nil, &MalformedSpecError{Code: ParseError, Message: fmt.Sprintf("parse spec: %v", err), Location: location, Cause: err}
		}
	}
	if root == nil {
		return nil, &MalformedSpecError{Code: ParseError, Message: "parse spec: document is empty or not an object", Location: location}
	}
	if err := checkRequiredFields(root, location); err != nil {
		return nil, err
	}

	version, err := detectSpecVersion(root)
	if err != nil {
		return nil, &MalformedSpecError{Code: ParseError, Message: err.Error(), Location: location, Cause: err}
	}
	log.WithField("version", version).Debug("detected document version")

	doc := &Document{Version: version, Location: location, order: order}

	relaxed, notes, err := relaxDocument(raw)
	if err != nil {
		log.WithError(err).Debug("skipped compatibility rewrites")
	}
	raw = relaxed

	switch version {
	case 3:
		v3doc, err := newLoader().LoadFromData(raw)
		if err != nil {
			return nil, mapLoadErr(err, location)
		}
		doc.OpenAPI = v3doc
	case 2:
		if fixed, changed, _ := rewriteV2BodyParams(raw); changed {
			log.Warn("rewrote non-compliant Swagger 2.0 body parameters before conversion")
			raw = fixed
		}
		doc.Swagger = swaggerOrigin(root)
		v3doc, err := convertV2ToV3(raw)
		if err != nil {
			return nil, &MalformedSpecError{Code: ConversionError, Message: fmt.Sprintf("convert v2→v3: %v", err), Location: location, Cause: err}
		}
		if err := newLoader().ResolveRefsIn(v3doc, nil); err != nil {
			return nil, mapLoadErr(err, location)
		}
		doc.OpenAPI = v3doc
	}

	doc.Warnings = lint(ctx, doc, raw)
	for _, n := range notes {
		doc.Warnings = append(doc.Warnings, "compat: "+n)
	}
	for _, w := range doc.Warnings {
		log.Warn(w)
	}
	return doc, nil
}

func newLoader() *openapi3.Loader {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	loader.ReadFromURIFunc = func(l *openapi3.Loader, uri *url.URL) ([]byte, error) {
		return nil, fmt.Errorf("external reference %s is not supported", uri.String())
	}
	return loader
}

// checkRequiredFields enforces info.title, info.version and paths.
func checkRequiredFields(root map[string]any, location string) error {
	missing := func(pointer, field string) error {
		return &MalformedSpecError{
			Code:        MissingFieldError,
			Message:     fmt.Sprintf("spec: required field %q is missing", field),
			Location:    location,
			JSONPointer: pointer,
		}
	}
	info, _ := root["info"].(map[string]any)
	if info == nil {
		return missing("#/info", "info")
	}
	if title, _ := info["title"].(string); strings.TrimSpace(title) == "" {
		return missing("#/info/title", "info.title")
	}
	if v, ok := info["version"]; !ok || v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" {
		return missing("#/info/version", "info.version")
	}
	if _, ok := root["paths"]; !ok {
		return missing("#/paths", "paths")
	}
	if _, ok := root["paths"].(map[string]any); !ok && root["paths"] != nil {
		return &MalformedSpecError{Code: ParseError, Message: "spec: paths must be an object", Location: location, JSONPointer: "#/paths"}
	}
	return nil
}

// detectSpecVersion returns 3 for OpenAPI v3, 2 for Swagger v2, else error.
func detectSpecVersion(root map[string]any) (int, error) {
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return 3, nil
		}
	}
	if v, ok := root["swagger"]; ok {
		if s := strings.TrimSpace(fmt.Sprint(v)); strings.HasPrefix(s, "2") {
			return 2, nil
		}
	}
	return 0, fmt.Errorf("spec: missing or unknown version (expected 'openapi: 3.x' or 'swagger: 2.0')")
}

func swaggerOrigin(root map[string]any) *SwaggerOrigin {
	o := &SwaggerOrigin{
		Host:     strings.TrimSpace(asString(root["host"])),
		BasePath: strings.TrimSpace(asString(root["basePath"])),
	}
	if list, ok := root["schemes"].([]any); ok {
		for _, s := range list {
			if str := strings.TrimSpace(asString(s)); str != "" {
				o.Schemes = append(o.Schemes, str)
			}
		}
	}
	return o
}

func convertV2ToV3(data []byte) (*openapi3.T, error) {
	jsonData, err := yamlToJSON(data)
	if err != nil {
		return nil, err
	}
	var v2 openapi2.T
	if err := json.Unmarshal(jsonData, &v2); err != nil {
		return nil, err
	}
	return openapi2conv.ToV3(&v2)
}

// yamlToJSON re-encodes YAML (or JSON) input as JSON. Non-string mapping
// keys such as unquoted status codes are stringified.
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(jsonCompatible(v))
}

func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	default:
		return v
	}
}

func fetchWithRetry(ctx context.Context, rawURL string, settings Settings) ([]byte, error) {
	client := &http.Client{Timeout: settings.HTTPTimeout}
	var lastErr error
	backoff := settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		body, retry, err := fetchOnce(ctx, client, rawURL, settings.UserAgent)
		if err == nil {
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		settings.Logger.WithError(err).WithField("attempt", i+1).Debug("fetch failed, retrying")
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

// fetchOnce performs a single GET. retry reports whether the failure is
// transient.
func fetchOnce(ctx context.Context, client *http.Client, rawURL, userAgent string) (body []byte, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

// refErrorMarkers are substrings of kin-openapi messages raised while
// resolving $ref pointers.
var refErrorMarkers = []string{"$ref", "reference", "bad data in", "fragment in uri", "unresolved ref"}

func mapLoadErr(err error, location string) error {
	code := ParseError
	lower := strings.ToLower(err.Error())
	for _, marker := range refErrorMarkers {
		if strings.Contains(lower, marker) {
			code = ReferenceError
			break
		}
	}
	return &MalformedSpecError{Code: code, Message: err.Error(), Location: location, JSONPointer: extractJSONPointer(err), Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	// Unwrap MultiError and take the first for brevity.
	var me openapi3.MultiError
	if errors.As(err, &me) && len(me) > 0 {
		return extractJSONPointer(me[0])
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	if m := jsonPtrRe.FindString(err.Error()); m != "" {
		return m
	}
	return ""
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
