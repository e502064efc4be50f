package utils

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

/**
 * Expand a templated command line
 * @param {string} command - Program template, e.g. "{{.Interpreter}}"
 * @param {[]string} args - Argument templates, e.g. "{{.Script}}"
 * @param {interface{}} data - Template data
 * @returns {string, []string} Expanded program and arguments
 * @description
 * - Referencing an unknown field is an error
 * - Arguments that expand to an empty string are dropped
 */
func GetCommandLine(command string, args []string, data interface{}) (string, []string, error) {
	program, err := expand("command", command, data)
	if err != nil {
		return "", nil, err
	}

	var processedArgs []string
	for _, arg := range args {
		expanded, err := expand("arg", arg, data)
		if err != nil {
			return "", nil, err
		}
		if expanded = strings.TrimSpace(expanded); expanded != "" {
			processedArgs = append(processedArgs, expanded)
		}
	}
	return strings.TrimSpace(program), processedArgs, nil
}

func expand(name, text string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template '%s': %w", name, text, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s template '%s': %w", name, text, err)
	}
	return buf.String(), nil
}
