package template_engine

import "embed"

//go:embed templates
var TemplateFS embed.FS

// TEMPLATES lists the template trees shipped in TemplateFS.
var TEMPLATES = struct {
	WORKSPACE TemplateRef
}{
	WORKSPACE: TemplateRef{Path: "workspace", IsDir: true},
}
