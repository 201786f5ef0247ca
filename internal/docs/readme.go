// Package docs renders the command list of the README.
package docs

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"server-tempo/internal/command"
	"server-tempo/internal/commands"
	"server-tempo/internal/config"

	"github.com/rs/zerolog/log"
)

// CommandSections renders one markdown section per category, ordered by
// category weight, listing every enabled command and context action.
func CommandSections(reg *command.Registry) string {
	byCategory := make(map[string][]*command.Descriptor)
	for _, d := range reg.Commands() {
		if !d.Enabled {
			continue
		}
		byCategory[d.Category] = append(byCategory[d.Category], d)
	}
	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	config.SortCategories(categories)

	var buf bytes.Buffer
	for i, cat := range categories {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "### %s\n\n", commands.TitleCase(cat))
		for _, d := range byCategory[cat] {
			display := d.Name
			if d.Kind == command.ChatInput {
				display = "/" + display
			}
			line := fmt.Sprintf("- **%s**", display)
			if d.Description != "" {
				line += " - " + d.Description
			}
			if len(d.Aliases) > 0 {
				line += fmt.Sprintf(" (aliases: `%s`)", joinAliases(d.Aliases))
			}
			buf.WriteString(line + "\n")
		}
	}
	return buf.String()
}

func joinAliases(aliases []string) string {
	out := ""
	for i, a := range aliases {
		if i > 0 {
			out += "`, `"
		}
		out += "/" + a
	}
	return out
}

// UpdateReadme executes the template at tmplPath with the command sections
// and writes the result to outPath.
func UpdateReadme(reg *command.Registry, tmplPath, outPath string) error {
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return err
	}

	data := struct {
		CommandSections string
	}{
		CommandSections: CommandSections(reg),
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return err
	}
	if err := os.WriteFile(outPath, out.Bytes(), 0644); err != nil {
		return err
	}

	log.Info().Str("path", outPath).Msg("README updated with current commands")
	return nil
}
