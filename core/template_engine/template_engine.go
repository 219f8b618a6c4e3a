// Package template_engine renders the embedded scaffolding templates.
package template_engine

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"text/template"
	"time"

	"github.com/tristendillon/widgetforge/core/logger"
	"github.com/tristendillon/widgetforge/core/shared"
)

const templateRoot = "templates"

type TemplateRef struct {
	Path  string
	IsDir bool
}

func (tr TemplateRef) IsFile() bool {
	return !tr.IsDir
}

func (tr TemplateRef) IsDirectory() bool {
	return tr.IsDir
}

type TemplateEngine struct {
	funcMap template.FuncMap
	source  fs.FS
}

func getDefaultFuncMap() template.FuncMap {
	return template.FuncMap{
		"upper":     strings.ToUpper,
		"lower":     strings.ToLower,
		"title":     shared.ToTitle,
		"trim":      strings.TrimSpace,
		"replace":   strings.ReplaceAll,
		"contains":  strings.Contains,
		"hasPrefix": strings.HasPrefix,
		"hasSuffix": strings.HasSuffix,
		"split":     strings.Split,
		"join":      strings.Join,

		"now":        time.Now,
		"formatTime": func(layout string, t time.Time) string { return t.Format(layout) },
		"date":       func(t time.Time) string { return t.Format("2006-01-02") },
		"datetime":   func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },

		"default": func(def, val interface{}) interface{} {
			if val == nil || val == "" {
				return def
			}
			return val
		},
		"env": os.Getenv,

		"len": func(v interface{}) int { return reflect.ValueOf(v).Len() },
		"not": func(b bool) bool { return !b },
	}
}

func NewTemplateEngine() *TemplateEngine {
	return NewTemplateEngineFromFS(TemplateFS)
}

// NewTemplateEngineFromFS renders templates from source, which must hold a
// top-level templates dir.
func NewTemplateEngineFromFS(source fs.FS) *TemplateEngine {
	return &TemplateEngine{
		funcMap: getDefaultFuncMap(),
		source:  source,
	}
}

// GenerateFolder renders every file under templateRef into outputDir. Files
// ending in .tmpl are executed with data and lose the suffix; others are
// copied verbatim. It returns the written paths relative to outputDir.
func (te *TemplateEngine) GenerateFolder(templateRef TemplateRef, outputDir string, data interface{}) ([]string, error) {
	if templateRef.IsFile() {
		return nil, fmt.Errorf("cannot generate folder from file reference: %s", templateRef.Path)
	}

	templateDir := path.Join(templateRoot, templateRef.Path)
	logger.Debug("Generating folder from template reference: %s", templateDir)

	var written []string
	err := fs.WalkDir(te.source, templateDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if p == templateDir {
			return nil
		}

		relPath := strings.TrimPrefix(p, templateDir+"/")
		outputPath := filepath.Join(outputDir, filepath.FromSlash(relPath))

		if d.IsDir() {
			return os.MkdirAll(outputPath, os.ModePerm)
		}

		logger.Debug("Generating file from path: %s", p)
		out, err := te.generateFileFromPath(p, outputPath, data)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(outputDir, out)
		if err != nil {
			return err
		}
		written = append(written, filepath.ToSlash(rel))
		return nil
	})

	return written, err
}

func (te *TemplateEngine) generateFileFromPath(templatePath, outputPath string, data interface{}) (string, error) {
	content, err := fs.ReadFile(te.source, templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template file %s: %w", templatePath, err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	if !strings.HasSuffix(templatePath, ".tmpl") {
		return outputPath, os.WriteFile(outputPath, content, 0644)
	}

	outputPath = strings.TrimSuffix(outputPath, ".tmpl")

	tmpl, err := template.New(path.Base(templatePath)).Funcs(te.funcMap).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", templatePath, err)
	}

	outputFile, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	defer outputFile.Close()

	if err := tmpl.Execute(outputFile, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templatePath, err)
	}

	return outputPath, nil
}

func (te *TemplateEngine) ListTemplates(templateRef TemplateRef) ([]string, error) {
	if templateRef.IsFile() {
		return []string{templateRef.Path}, nil
	}

	var templates []string
	templateDir := path.Join(templateRoot, templateRef.Path)

	err := fs.WalkDir(te.source, templateDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			templates = append(templates, strings.TrimPrefix(p, templateRoot+"/"))
		}

		return nil
	})

	return templates, err
}

func (te *TemplateEngine) ValidateTemplate(templateRef TemplateRef) error {
	templatePath := path.Join(templateRoot, templateRef.Path)

	info, err := fs.Stat(te.source, templatePath)
	if err != nil {
		return fmt.Errorf("template not found: %s", templateRef.Path)
	}

	if info.IsDir() != templateRef.IsDirectory() {
		return fmt.Errorf("template reference type mismatch for %s: expected dir=%t, got dir=%t",
			templateRef.Path, templateRef.IsDirectory(), info.IsDir())
	}

	return nil
}
