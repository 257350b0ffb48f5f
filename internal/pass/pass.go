package pass

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"invitide/internal/logger"
	"invitide/internal/models"
	"invitide/internal/utils"

	"github.com/google/uuid"
)

const ContentType = "application/vnd.apple.pkpass"

var (
	ErrMissingFields     = fmt.Errorf("missing event data: %w", models.ErrInvalidInput)
	ErrMissingAsset      = fmt.Errorf("missing required icon file: %w", models.ErrInvalidInput)
	ErrSignerUnavailable = errors.New("pass signing is not configured")
)

var (
	requiredAssets = []string{"icon.png", "icon@2x.png"}
	optionalAssets = []string{"logo.png"}
)

type Options struct {
	AssetsDir          string
	PassTypeIdentifier string
	TeamIdentifier     string
	OrganizationName   string
}

type Generator struct {
	opts      Options
	signer    Signer
	logger    *logger.Logger
	newSerial func() string
}

// NewGenerator builds passes from opts. A nil signer makes every Generate fail
// with ErrSignerUnavailable.
func NewGenerator(opts Options, signer Signer, log *logger.Logger) *Generator {
	return &Generator{
		opts:      opts,
		signer:    signer,
		logger:    log,
		newSerial: func() string { return uuid.New().String() },
	}
}

type field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

type structure struct {
	HeaderFields    []field `json:"headerFields,omitempty"`
	PrimaryFields   []field `json:"primaryFields,omitempty"`
	SecondaryFields []field `json:"secondaryFields,omitempty"`
	AuxiliaryFields []field `json:"auxiliaryFields,omitempty"`
	BackFields      []field `json:"backFields,omitempty"`
}

type passDocument struct {
	FormatVersion      int       `json:"formatVersion"`
	PassTypeIdentifier string    `json:"passTypeIdentifier"`
	SerialNumber       string    `json:"serialNumber"`
	TeamIdentifier     string    `json:"teamIdentifier"`
	OrganizationName   string    `json:"organizationName"`
	Description        string    `json:"description"`
	BackgroundColor    string    `json:"backgroundColor"`
	ForegroundColor    string    `json:"foregroundColor"`
	LabelColor         string    `json:"labelColor"`
	EventTicket        structure `json:"eventTicket"`
}

// Generate returns a signed .pkpass archive for req.
func (g *Generator) Generate(req models.PassRequest) ([]byte, error) {
	req.EventName = strings.TrimSpace(req.EventName)
	req.EventDate = strings.TrimSpace(req.EventDate)
	req.EventLocation = strings.TrimSpace(req.EventLocation)
	if err := utils.Validate(req); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMissingFields)
	}

	files := map[string][]byte{}
	for _, name := range requiredAssets {
		data, err := os.ReadFile(filepath.Join(g.opts.AssetsDir, name))
		if err != nil {
			g.logger.Error("PASS", fmt.Sprintf("Missing required icon file: %s", name))
			return nil, fmt.Errorf("%s: %w", name, ErrMissingAsset)
		}
		files[name] = data
	}
	for _, name := range optionalAssets {
		if data, err := os.ReadFile(filepath.Join(g.opts.AssetsDir, name)); err == nil {
			files[name] = data
		}
	}

	if g.signer == nil {
		return nil, ErrSignerUnavailable
	}

	serial := g.newSerial()
	doc, err := json.Marshal(g.document(req, serial))
	if err != nil {
		return nil, fmt.Errorf("failed to encode pass.json: %w", err)
	}
	files["pass.json"] = doc

	manifest, err := buildManifest(files)
	if err != nil {
		return nil, err
	}
	signature, err := g.signer.Sign(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign pass: %w", err)
	}
	files["manifest.json"] = manifest
	files["signature"] = signature

	archive, err := writeArchive(files)
	if err != nil {
		return nil, err
	}
	g.logger.Info("PASS", fmt.Sprintf("Generated pass %s for %q", serial, req.EventName))
	return archive, nil
}

func (g *Generator) document(req models.PassRequest, serial string) passDocument {
	return passDocument{
		FormatVersion:      1,
		PassTypeIdentifier: g.opts.PassTypeIdentifier,
		SerialNumber:       serial,
		TeamIdentifier:     g.opts.TeamIdentifier,
		OrganizationName:   g.opts.OrganizationName,
		Description:        "Event Pass",
		BackgroundColor:    "rgb(0, 0, 0)",
		ForegroundColor:    "rgb(255, 255, 255)",
		LabelColor:         "rgb(255, 255, 255)",
		EventTicket: structure{
			HeaderFields:    []field{{Key: "eventName", Label: "Event", Value: req.EventName}},
			SecondaryFields: []field{{Key: "eventDate", Label: "Date", Value: req.EventDate}},
			AuxiliaryFields: []field{{Key: "eventLocation", Label: "Location", Value: req.EventLocation}},
			BackFields:      []field{{Key: "notes", Label: "Notes", Value: "Present this pass at the entrance."}},
		},
	}
}

// buildManifest maps every file name to the hex SHA-1 of its contents.
func buildManifest(files map[string][]byte) ([]byte, error) {
	manifest := make(map[string]string, len(files))
	for name, data := range files {
		sum := sha1.Sum(data)
		manifest[name] = hex.EncodeToString(sum[:])
	}
	out, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return out, nil
}

func writeArchive(files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range sortedNames(files) {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}
	return buf.Bytes(), nil
}

func sortedNames(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
