package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
)

// Top-level fields a generation response is expected to carry.
var (
	requiredResponseFields = []string{"project_name", "technology_stack", "build_instructions"}
	knownResponseFields    = []string{
		"project_name", "description", "technology_stack", "directory_structure",
		"dependencies", "environment_variables", "post_build_commands",
		"build_sequence", "build_instructions", "project_overview", "build_process",
	}
	requiredInstructionFields = []string{"type", "action", "target"}
)

// parseResponse extracts the JSON object from a generation response.
// Markdown code fences and surrounding prose are tolerated. The object must
// carry at least one known analysis field.
func parseResponse(content string) (map[string]any, []byte, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, nil, fmt.Errorf("%w: empty response", domain.ErrInvalidResponse)
	}

	text = stripCodeFence(text)
	if strings.HasPrefix(text, "[") {
		return nil, nil, fmt.Errorf("%w: response is not an object", domain.ErrInvalidResponse)
	}
	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return nil, nil, fmt.Errorf("%w: no JSON object found", domain.ErrInvalidResponse)
		}
		text = text[start : end+1]
	}

	raw := []byte(text)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	if obj == nil {
		return nil, nil, fmt.Errorf("%w: response is not an object", domain.ErrInvalidResponse)
	}

	for _, field := range knownResponseFields {
		if _, ok := obj[field]; ok {
			return obj, raw, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: no analysis fields in response", domain.ErrInvalidResponse)
}

func stripCodeFence(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	body := text[start+3:]
	// Drop the info string ("json").
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// ValidateResponse checks a parsed generation response against the analysis schema.
// Missing required fields and malformed instructions are errors; missing
// instruction sub-fields and oddly shaped lists are warnings.
func ValidateResponse(obj map[string]any) domain.ValidationResult {
	result := domain.NewValidationResult()

	for _, field := range requiredResponseFields {
		if _, ok := obj[field]; !ok {
			result.AddError("Missing required field: %s", field)
		}
	}

	if raw, ok := obj["build_instructions"]; ok {
		list, isList := raw.([]any)
		if !isList {
			result.AddError("build_instructions must be a list")
		}
		for i, item := range list {
			inst, isObj := item.(map[string]any)
			if !isObj {
				result.AddError("Instruction %d must be an object", i)
				continue
			}
			for _, field := range requiredInstructionFields {
				if _, ok := inst[field]; !ok {
					result.AddWarning("Instruction %d missing field: %s", i, field)
				}
			}
		}
	}

	if raw, ok := obj["technology_stack"]; ok {
		if _, isList := raw.([]any); !isList {
			result.AddWarning("technology_stack should be a list")
		}
	}

	if raw, ok := obj["dependencies"]; ok {
		switch deps := raw.(type) {
		case []any:
		case map[string]any:
			if pkgs, has := deps["packages"]; has {
				if list, _ := pkgs.([]any); len(list) == 0 {
					result.AddWarning("Dependencies packages list is empty")
				}
			} else {
				result.AddWarning("dependencies should be a list")
			}
		default:
			result.AddWarning("dependencies should be a list")
		}
	}

	if len(result.Errors) > 0 {
		result.Suggestions = append(result.Suggestions,
			"Rule-based defaults were used for missing fields")
	}
	return result
}

// decodeAnalysis reads analysis fields leniently: strings, lists and maps are
// accepted in the shapes providers commonly return them, including the nested
// project_overview/build_process layout. Unusable fields stay empty.
func decodeAnalysis(obj map[string]any) *domain.Analysis {
	a := &domain.Analysis{
		ProjectName:          stringField(obj, "project_name"),
		Description:          stringField(obj, "description"),
		TechnologyStack:      stringList(obj["technology_stack"], "languages", "frameworks", "databases", "tools"),
		DirectoryStructure:   directoryTree(obj["directory_structure"]),
		Dependencies:         stringList(obj["dependencies"], "packages", "runtime", "development", "system"),
		EnvironmentVariables: stringMap(obj["environment_variables"]),
		PostBuildCommands:    stringList(obj["post_build_commands"]),
		BuildSequence:        stringList(obj["build_sequence"]),
		BuildInstructions:    instructions(obj["build_instructions"]),
	}

	if overview, ok := obj["project_overview"].(map[string]any); ok {
		if a.ProjectName == "" {
			a.ProjectName = stringField(overview, "name")
		}
		if a.Description == "" {
			a.Description = stringField(overview, "description")
		}
	}
	if len(a.BuildSequence) == 0 {
		if process, ok := obj["build_process"].(map[string]any); ok {
			a.BuildSequence = stringList(process["steps"])
		}
	}

	a.TechnologyStack = domain.CollapseDuplicates(a.TechnologyStack)
	a.Dependencies = domain.CollapseDuplicates(a.Dependencies)
	return a
}

func stringField(obj map[string]any, key string) string {
	return strings.TrimSpace(scalarString(obj[key]))
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// stringList flattens v into strings. Lists of scalars are used as is; list
// objects contribute their name, command or target. A map contributes the
// named groups in order; otherwise nested values are flattened by key, and
// a flat map contributes its sorted keys.
func stringList(v any, groups ...string) []string {
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if obj, ok := item.(map[string]any); ok {
				if s := firstString(obj, "name", "command", "target", "package", "description"); s != "" {
					out = append(out, s)
				}
				continue
			}
			if s := strings.TrimSpace(scalarString(item)); s != "" {
				out = append(out, s)
			}
		}
		return out
	case map[string]any:
		var out []string
		matched := false
		for _, g := range groups {
			if sub, ok := t[g]; ok {
				matched = true
				out = append(out, stringList(sub)...)
			}
		}
		if matched {
			return out
		}
		keys := make([]string, 0, len(t))
		nested := false
		for k, val := range t {
			keys = append(keys, k)
			switch val.(type) {
			case []any, map[string]any:
				nested = true
			}
		}
		sort.Strings(keys)
		if !nested {
			// {"react": "^18.2.0"}
			return keys
		}
		for _, k := range keys {
			out = append(out, stringList(t[k])...)
		}
		return out
	}
	return nil
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := stringField(obj, k); s != "" {
			return s
		}
	}
	return ""
}

// stringMap accepts {"KEY": value} or [{"name": "KEY", "value": "v"}].
func stringMap(v any) map[string]string {
	out := make(map[string]string)
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			out[k] = scalarString(val)
		}
	case []any:
		for _, item := range t {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if name := firstString(obj, "name", "key"); name != "" {
				out[name] = scalarString(obj["value"])
			}
		}
	}
	return out
}

// directoryTree accepts a nested mapping or a list of paths, where a
// trailing slash marks a directory.
func directoryTree(v any) domain.DirectoryTree {
	tree := make(domain.DirectoryTree)
	switch t := v.(type) {
	case map[string]any:
		data, err := json.Marshal(t)
		if err != nil {
			return tree
		}
		if err := json.Unmarshal(data, &tree); err != nil {
			return make(domain.DirectoryTree)
		}
	case []any:
		for _, item := range t {
			p := strings.TrimSpace(scalarString(item))
			if p == "" {
				continue
			}
			isDir := strings.HasSuffix(p, "/")
			tree.Insert(strings.TrimRight(p, "/"), isDir)
		}
	}
	return tree
}

// instructions decodes explicit build instructions. Type defaults to command,
// action to the type's default and order to the list position.
func instructions(v any) []domain.BuildInstruction {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]domain.BuildInstruction, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		typ := domain.InstructionType(strings.ToLower(stringField(obj, "type")))
		if typ == "" {
			typ = domain.InstructionCommand
		}
		action := domain.Action(strings.ToLower(stringField(obj, "action")))
		if action == "" {
			action = typ.DefaultAction()
		}
		order := i
		for _, key := range []string{"order", "step"} {
			if n, err := strconv.Atoi(scalarString(obj[key])); err == nil {
				order = n
				break
			}
		}
		out = append(out, domain.BuildInstruction{
			Type:    typ,
			Action:  action,
			Target:  firstString(obj, "target", "command", "path", "name"),
			Content: scalarString(obj["content"]),
			Order:   order,
		})
	}
	return out
}
