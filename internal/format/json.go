package format

import (
	"bytes"
	"encoding/json"

	"github.com/planweave/planweave/internal/models"
)

// jsonImportType is the discriminator that marks an inline import object
const jsonImportType = "import"

// canonical node keys; everything else lands in Extra
var jsonNodeKeys = map[string]bool{
	"id": true, "title": true, "priority": true, "status": true,
	"assignee": true, "startDate": true, "endDate": true, "daysSpent": true,
	"comment": true, "code": true, "taskPrompt": true, "cliCommand": true,
	"children": true, "_provenance": true,
}

func parseJSON(data []byte) (*models.Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, models.Errorf(models.KindMalformedDocument, "", "missing root container")
	}
	switch trimmed[0] {
	case '[':
		// array-of-nodes shorthand
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, models.NewDocError(models.KindMalformedDocument, "", err)
		}
		children, err := parseJSONChildren(raws)
		if err != nil {
			return nil, err
		}
		return &models.Document{Children: children}, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, models.NewDocError(models.KindMalformedDocument, "", err)
		}
		if nodesRaw, ok := obj["nodes"]; ok {
			var raws []json.RawMessage
			if err := json.Unmarshal(nodesRaw, &raws); err != nil {
				return nil, models.Errorf(models.KindMalformedDocument, "", "nodes is not an array")
			}
			children, err := parseJSONChildren(raws)
			if err != nil {
				return nil, err
			}
			return &models.Document{Children: children}, nil
		}
		// single-node shorthand
		if _, ok := obj["title"]; ok {
			child, err := parseJSONChildObject(obj)
			if err != nil {
				return nil, err
			}
			return &models.Document{Children: []models.Child{child}}, nil
		}
		return nil, models.Errorf(models.KindMalformedDocument, "", "missing root container")
	default:
		return nil, models.Errorf(models.KindMalformedDocument, "", "missing root container")
	}
}

func parseJSONChildren(raws []json.RawMessage) ([]models.Child, error) {
	children := make([]models.Child, 0, len(raws))
	for _, raw := range raws {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, models.Errorf(models.KindMalformedDocument, "", "node entry is not an object")
		}
		child, err := parseJSONChildObject(obj)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func parseJSONChildObject(obj map[string]json.RawMessage) (models.Child, error) {
	if typeRaw, ok := obj["type"]; ok {
		var typ string
		if err := json.Unmarshal(typeRaw, &typ); err == nil && typ == jsonImportType {
			var target string
			if pathRaw, ok := obj["path"]; ok {
				if err := json.Unmarshal(pathRaw, &target); err != nil || target == "" {
					return nil, models.Errorf(models.KindMalformedDocument, "", "import object with invalid path")
				}
				return &models.ImportReference{Target: target}, nil
			}
			return nil, models.Errorf(models.KindMalformedDocument, "", "import object without path")
		}
	}
	return parseJSONNode(obj)
}

func parseJSONNode(obj map[string]json.RawMessage) (*models.Node, error) {
	n := &models.Node{}
	var err error
	if n.ID, err = jsonString(obj, "id"); err != nil {
		return nil, err
	}
	if n.Title, err = jsonString(obj, "title"); err != nil {
		return nil, err
	}
	var s string
	if s, err = jsonString(obj, "priority"); err != nil {
		return nil, err
	}
	n.Priority = models.Priority(s)
	if s, err = jsonString(obj, "status"); err != nil {
		return nil, err
	}
	n.Status = models.Status(s)
	if n.Assignee, err = jsonString(obj, "assignee"); err != nil {
		return nil, err
	}
	if n.StartDate, err = jsonString(obj, "startDate"); err != nil {
		return nil, err
	}
	if n.EndDate, err = jsonString(obj, "endDate"); err != nil {
		return nil, err
	}
	if raw, ok := obj["daysSpent"]; ok {
		var d int
		if err := json.Unmarshal(raw, &d); err != nil || d < 0 {
			return nil, models.Errorf(models.KindMalformedDocument, "", "daysSpent %s is not a non-negative integer", raw)
		}
		n.DaysSpent = &d
	}
	if n.Comment, err = jsonString(obj, "comment"); err != nil {
		return nil, err
	}
	if n.TaskPrompt, err = jsonString(obj, "taskPrompt"); err != nil {
		return nil, err
	}
	if n.CLICommand, err = jsonString(obj, "cliCommand"); err != nil {
		return nil, err
	}
	if raw, ok := obj["code"]; ok {
		code, err := parseJSONCode(raw)
		if err != nil {
			return nil, err
		}
		n.Code = code
	}
	if raw, ok := obj["_provenance"]; ok {
		var p models.Provenance
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, models.Errorf(models.KindMalformedDocument, "", "invalid _provenance on node %q", n.Title)
		}
		n.Prov = &p
	}
	if raw, ok := obj["children"]; ok {
		var raws []json.RawMessage
		if err := json.Unmarshal(raw, &raws); err != nil {
			return nil, models.Errorf(models.KindMalformedDocument, "", "children of node %q is not an array", n.Title)
		}
		children, err := parseJSONChildren(raws)
		if err != nil {
			return nil, err
		}
		n.Children = children
	}

	// unknown string fields survive round-trips as extra attributes
	for k, raw := range obj {
		if jsonNodeKeys[k] {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, models.Errorf(models.KindMalformedDocument, "", "unknown field %q on node %q is not a string", k, n.Title)
		}
		if n.Extra == nil {
			n.Extra = make(map[string]string)
		}
		n.Extra[k] = v
	}

	return finishNode(n)
}

func jsonString(obj map[string]json.RawMessage, key string) (string, error) {
	raw, ok := obj[key]
	if !ok {
		return "", nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", models.Errorf(models.KindMalformedDocument, "", "field %q is not a string", key)
	}
	return v, nil
}

// parseJSONCode normalizes the code payload's aliases: a bare string, or
// an object with language/lang and content/body/text keys
func parseJSONCode(raw json.RawMessage) (*models.CodeBlock, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var body string
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return nil, models.NewDocError(models.KindMalformedDocument, "", err)
		}
		return &models.CodeBlock{Content: body}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, models.Errorf(models.KindMalformedDocument, "", "code block is neither a string nor an object")
	}
	code := &models.CodeBlock{}
	found := false
	for _, key := range []string{"content", "body", "text"} {
		if raw, ok := obj[key]; ok {
			if err := json.Unmarshal(raw, &code.Content); err != nil {
				return nil, models.Errorf(models.KindMalformedDocument, "", "code %s is not a string", key)
			}
			found = true
			break
		}
	}
	if !found {
		return nil, models.Errorf(models.KindMalformedDocument, "", "code object without content")
	}
	for _, key := range []string{"language", "lang"} {
		if raw, ok := obj[key]; ok {
			if err := json.Unmarshal(raw, &code.Language); err != nil {
				return nil, models.Errorf(models.KindMalformedDocument, "", "code %s is not a string", key)
			}
			break
		}
	}
	return code, nil
}

func serializeJSON(doc *models.Document, withProvenance bool) ([]byte, error) {
	nodes := make([]any, 0, len(doc.Children))
	for _, c := range doc.Children {
		v, err := jsonChildValue(c, withProvenance)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, v)
	}
	root := map[string]any{"nodes": nodes}
	out, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, models.NewDocError(models.KindMalformedDocument, doc.Path, err)
	}
	return append(out, '\n'), nil
}

func jsonChildValue(c models.Child, withProvenance bool) (any, error) {
	switch v := c.(type) {
	case *models.ImportReference:
		return map[string]any{"type": jsonImportType, "path": v.Target}, nil
	case *models.Node:
		return jsonNodeValue(v, withProvenance)
	default:
		return nil, models.Errorf(models.KindMalformedDocument, "", "unknown child type %T", c)
	}
}

func jsonNodeValue(n *models.Node, withProvenance bool) (map[string]any, error) {
	obj := map[string]any{"title": n.Title}
	if n.ID != "" {
		obj["id"] = n.ID
	}
	if n.Priority != "" {
		obj["priority"] = string(n.Priority)
	}
	if n.Status != "" {
		obj["status"] = string(n.Status)
	}
	if n.Assignee != "" {
		obj["assignee"] = n.Assignee
	}
	if n.StartDate != "" {
		obj["startDate"] = n.StartDate
	}
	if n.EndDate != "" {
		obj["endDate"] = n.EndDate
	}
	if n.DaysSpent != nil {
		obj["daysSpent"] = *n.DaysSpent
	}
	if n.Comment != "" {
		obj["comment"] = n.Comment
	}
	if n.Code != nil {
		code := map[string]any{"content": n.Code.Content}
		if n.Code.Language != "" {
			code["language"] = n.Code.Language
		}
		obj["code"] = code
	}
	if n.TaskPrompt != "" {
		obj["taskPrompt"] = n.TaskPrompt
	}
	if n.CLICommand != "" {
		obj["cliCommand"] = n.CLICommand
	}
	for k, v := range n.Extra {
		obj[k] = v
	}
	if withProvenance && n.Prov != nil {
		obj["_provenance"] = n.Prov
	}
	if len(n.Children) > 0 {
		children := make([]any, 0, len(n.Children))
		for _, c := range n.Children {
			v, err := jsonChildValue(c, withProvenance)
			if err != nil {
				return nil, err
			}
			children = append(children, v)
		}
		obj["children"] = children
	}
	return obj, nil
}
