package service

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"payroll-web/internal/models"
)

// SegmentCombination is one contiguous run of filename segments joined with
// a dash, together with the zero-based positions it covers. Combinations are
// derived transiently during matching and never stored.
type SegmentCombination struct {
	Value   string
	Indices []int
}

// ConsecutiveCombinations generates every contiguous sub-run of the segment
// list, ordered by increasing start position then increasing length. For n
// segments it yields exactly n(n+1)/2 combinations.
//
// For ["jean", "pierre", "dupont"]:
//
//	jean (0), jean-pierre (0,1), jean-pierre-dupont (0,1,2),
//	pierre (1), pierre-dupont (1,2), dupont (2)
func ConsecutiveCombinations(links []string) []SegmentCombination {
	count := len(links)
	combinations := make([]SegmentCombination, 0, count*(count+1)/2)

	for start := 0; start < count; start++ {
		for length := 1; length <= count-start; length++ {
			indices := make([]int, length)
			for i := range indices {
				indices[i] = start + i
			}
			combinations = append(combinations, SegmentCombination{
				Value:   strings.Join(links[start:start+length], "-"),
				Indices: indices,
			})
		}
	}

	return combinations
}

// IndicesOverlap reports whether the two index sets share any position.
func IndicesOverlap(a, b []int) bool {
	seen := make(map[int]struct{}, len(a))
	for _, i := range a {
		seen[i] = struct{}{}
	}
	for _, i := range b {
		if _, ok := seen[i]; ok {
			return true
		}
	}
	return false
}

// PDFMatcher extracts payslip archives and matches the extracted files to
// employees by filename. Matching itself is pure; only the work directory
// for extraction is held as state.
type PDFMatcher struct {
	workDir string
}

func NewPDFMatcher(workDir string) *PDFMatcher {
	return &PDFMatcher{workDir: workDir}
}

func (m *PDFMatcher) WorkDir() string {
	return m.workDir
}

// ExtractFromZip extracts an archive into workDir/extractFolder and returns
// the payslip candidates found at the top level of the extraction.
func (m *PDFMatcher) ExtractFromZip(zipPath, extractFolder string) ([]models.PDFCandidate, error) {
	if _, err := os.Stat(zipPath); err != nil {
		return nil, fmt.Errorf("zip file not found: %s", zipPath)
	}

	if extractFolder == "" {
		extractFolder = strings.TrimSuffix(filepath.Base(zipPath), filepath.Ext(zipPath))
	}
	extractPath := filepath.Join(m.workDir, extractFolder)

	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive %s: %w", zipPath, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(extractPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	for _, file := range reader.File {
		if err := extractZipEntry(file, extractPath); err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}

	return m.ScanDirectoryForPDFs(extractPath)
}

func extractZipEntry(file *zip.File, destDir string) error {
	destPath := filepath.Join(destDir, filepath.Clean(file.Name))
	if !strings.HasPrefix(destPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal path in archive: %s", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// ScanDirectoryForPDFs lists the .pdf files (case-insensitive extension)
// directly under dir and splits each filename without extension on "_" or
// space into lowercase name tokens.
func (m *PDFMatcher) ScanDirectoryForPDFs(dir string) ([]models.PDFCandidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var pdfs []models.PDFCandidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		pdfs = append(pdfs, models.PDFCandidate{
			Filename: name,
			Path:     filepath.Join(dir, name),
			Links: strings.FieldsFunc(base, func(r rune) bool {
				return r == '_' || r == ' '
			}),
		})
	}

	return pdfs, nil
}

// FindPDFForUser returns the path of the first candidate, in input order,
// whose filename contains both the firstname and the lastname on disjoint
// segment runs, or "" when no candidate matches.
//
// The disjointness requirement prevents one segment from serving as both
// names: "martin.pdf" does not match Martin Martin, "martin_martin.pdf"
// does. Compound names match via joined runs, so "jean_pierre_dupont.pdf"
// matches Jean-Pierre Dupont.
func (m *PDFMatcher) FindPDFForUser(firstname, lastname string, pdfs []models.PDFCandidate) string {
	normFirst := Normalize(firstname)
	normLast := Normalize(lastname)

	for _, pdf := range pdfs {
		combinations := ConsecutiveCombinations(pdf.Links)

		var firstMatches, lastMatches [][]int
		for _, combo := range combinations {
			normalized := Normalize(combo.Value)
			if normalized == normFirst {
				firstMatches = append(firstMatches, combo.Indices)
			}
			if normalized == normLast {
				lastMatches = append(lastMatches, combo.Indices)
			}
		}

		for _, fn := range firstMatches {
			for _, ln := range lastMatches {
				if !IndicesOverlap(fn, ln) {
					return pdf.Path
				}
			}
		}
	}

	return ""
}

// Cleanup removes an extracted folder and, when given, the archive it came
// from. Both paths are relative to the work directory.
func (m *PDFMatcher) Cleanup(folderName, zipName string) error {
	if zipName != "" {
		zipPath := filepath.Join(m.workDir, zipName)
		if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete zip file %s: %w", zipPath, err)
		}
	}

	if folderName != "" {
		folderPath := filepath.Join(m.workDir, folderName)
		if err := os.RemoveAll(folderPath); err != nil {
			return fmt.Errorf("failed to delete folder %s: %w", folderPath, err)
		}
	}

	return nil
}
