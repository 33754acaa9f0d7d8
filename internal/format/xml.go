package format

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/planweave/planweave/internal/models"
)

const (
	xmlRootElement   = "plan"
	xmlNodeElement   = "node"
	xmlImportElement = "import"
	xmlImportAttr    = "src"
)

// canonical scalar attributes, in serialization order
var xmlNodeAttrs = []string{"id", "title", "priority", "status", "assignee", "startDate", "endDate", "daysSpent"}

func parseXML(data []byte) (*models.Document, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, models.Errorf(models.KindMalformedDocument, "", "missing <%s> root element", xmlRootElement)
		}
		if err != nil {
			return nil, models.NewDocError(models.KindMalformedDocument, "", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != xmlRootElement {
				return nil, models.Errorf(models.KindMalformedDocument, "",
					"root element is <%s>, expected <%s>", t.Name.Local, xmlRootElement)
			}
			children, err := parseXMLChildren(dec)
			if err != nil {
				return nil, err
			}
			return &models.Document{Children: children}, nil
		case xml.ProcInst, xml.Comment, xml.Directive:
			// prolog
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, models.Errorf(models.KindMalformedDocument, "", "text outside root element")
			}
		}
	}
}

// parseXMLChildren consumes tokens up to the enclosing end element and
// returns the ordered child list
func parseXMLChildren(dec *xml.Decoder) ([]models.Child, error) {
	var children []models.Child
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, models.NewDocError(models.KindMalformedDocument, "", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case xmlNodeElement:
				n, err := parseXMLNode(dec, t)
				if err != nil {
					return nil, err
				}
				children = append(children, n)
			case xmlImportElement:
				ref, err := parseXMLImport(dec, t)
				if err != nil {
					return nil, err
				}
				children = append(children, ref)
			default:
				return nil, models.Errorf(models.KindMalformedDocument, "", "unexpected element <%s>", t.Name.Local)
			}
		case xml.EndElement:
			return children, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, models.Errorf(models.KindMalformedDocument, "", "unexpected text content %q", strings.TrimSpace(string(t)))
			}
		}
	}
}

func parseXMLImport(dec *xml.Decoder, start xml.StartElement) (*models.ImportReference, error) {
	var target string
	for _, a := range start.Attr {
		if a.Name.Local == xmlImportAttr {
			target = a.Value
		}
	}
	if target == "" {
		return nil, models.Errorf(models.KindMalformedDocument, "", "<%s> element without %s attribute", xmlImportElement, xmlImportAttr)
	}
	// import elements are empty
	if err := dec.Skip(); err != nil {
		return nil, models.NewDocError(models.KindMalformedDocument, "", err)
	}
	return &models.ImportReference{Target: target}, nil
}

func parseXMLNode(dec *xml.Decoder, start xml.StartElement) (*models.Node, error) {
	n := &models.Node{}
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "id":
			n.ID = a.Value
		case "title":
			n.Title = a.Value
		case "priority":
			n.Priority = models.Priority(a.Value)
		case "status":
			n.Status = models.Status(a.Value)
		case "assignee":
			n.Assignee = a.Value
		case "startDate":
			n.StartDate = a.Value
		case "endDate":
			n.EndDate = a.Value
		case "daysSpent":
			d, err := strconv.Atoi(a.Value)
			if err != nil || d < 0 {
				return nil, models.Errorf(models.KindMalformedDocument, "", "daysSpent %q is not a non-negative integer", a.Value)
			}
			n.DaysSpent = &d
		default:
			if n.Extra == nil {
				n.Extra = make(map[string]string)
			}
			n.Extra[a.Name.Local] = a.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, models.NewDocError(models.KindMalformedDocument, "", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case xmlNodeElement:
				child, err := parseXMLNode(dec, t)
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, child)
			case xmlImportElement:
				ref, err := parseXMLImport(dec, t)
				if err != nil {
					return nil, err
				}
				n.Children = append(n.Children, ref)
			case "comment":
				if err := setXMLText(dec, &n.Comment, "comment", n.Comment != ""); err != nil {
					return nil, err
				}
			case "taskPrompt":
				if err := setXMLText(dec, &n.TaskPrompt, "taskPrompt", n.TaskPrompt != ""); err != nil {
					return nil, err
				}
			case "cliCommand":
				if err := setXMLText(dec, &n.CLICommand, "cliCommand", n.CLICommand != ""); err != nil {
					return nil, err
				}
			case "code":
				if n.Code != nil {
					return nil, models.Errorf(models.KindMalformedDocument, "", "duplicate <code> block on node %q", n.Title)
				}
				code := &models.CodeBlock{}
				for _, a := range t.Attr {
					if a.Name.Local == "language" {
						code.Language = a.Value
					}
				}
				body, err := readXMLText(dec)
				if err != nil {
					return nil, err
				}
				code.Content = body
				n.Code = code
			default:
				return nil, models.Errorf(models.KindMalformedDocument, "", "unexpected element <%s> inside node", t.Name.Local)
			}
		case xml.EndElement:
			return finishNode(n)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, models.Errorf(models.KindMalformedDocument, "", "unexpected text content inside node %q", n.Title)
			}
		}
	}
}

func setXMLText(dec *xml.Decoder, dst *string, element string, dup bool) error {
	if dup {
		return models.Errorf(models.KindMalformedDocument, "", "duplicate <%s> block", element)
	}
	text, err := readXMLText(dec)
	if err != nil {
		return err
	}
	*dst = text
	return nil
}

// readXMLText consumes character data up to the end of the current
// element
func readXMLText(dec *xml.Decoder) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", models.NewDocError(models.KindMalformedDocument, "", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		case xml.StartElement:
			return "", models.Errorf(models.KindMalformedDocument, "", "unexpected element <%s> inside content block", t.Name.Local)
		}
	}
}

// finishNode applies defaults and validates the normalized node
func finishNode(n *models.Node) (*models.Node, error) {
	if n.Title == "" {
		return nil, models.Errorf(models.KindMalformedDocument, "", "node without title")
	}
	n.ApplyDefaults()
	if !n.Priority.Valid() {
		return nil, models.Errorf(models.KindMalformedDocument, "", "node %q has invalid priority %q", n.Title, n.Priority)
	}
	if !n.Status.Valid() {
		return nil, models.Errorf(models.KindMalformedDocument, "", "node %q has invalid status %q", n.Title, n.Status)
	}
	return n, nil
}

func serializeXML(doc *models.Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if len(doc.Children) == 0 {
		fmt.Fprintf(&buf, "<%s/>\n", xmlRootElement)
		return buf.Bytes(), nil
	}
	fmt.Fprintf(&buf, "<%s>\n", xmlRootElement)
	for _, c := range doc.Children {
		if err := writeXMLChild(&buf, c, 1); err != nil {
			return nil, err
		}
	}
	fmt.Fprintf(&buf, "</%s>\n", xmlRootElement)
	return buf.Bytes(), nil
}

func writeXMLChild(buf *bytes.Buffer, c models.Child, depth int) error {
	indent := strings.Repeat("  ", depth)
	switch v := c.(type) {
	case *models.ImportReference:
		fmt.Fprintf(buf, "%s<%s %s=\"%s\"/>\n", indent, xmlImportElement, xmlImportAttr, escapeXMLAttr(v.Target))
		return nil
	case *models.Node:
		return writeXMLNode(buf, v, depth)
	default:
		return models.Errorf(models.KindMalformedDocument, "", "unknown child type %T", c)
	}
}

func writeXMLNode(buf *bytes.Buffer, n *models.Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(xmlNodeElement)
	for _, name := range xmlNodeAttrs {
		if v, ok := xmlAttrValue(n, name); ok {
			fmt.Fprintf(buf, " %s=\"%s\"", name, escapeXMLAttr(v))
		}
	}
	for _, k := range sortedKeys(n.Extra) {
		fmt.Fprintf(buf, " %s=\"%s\"", k, escapeXMLAttr(n.Extra[k]))
	}

	hasBody := n.Comment != "" || n.Code != nil || n.TaskPrompt != "" || n.CLICommand != "" || len(n.Children) > 0
	if !hasBody {
		buf.WriteString("/>\n")
		return nil
	}
	buf.WriteString(">\n")
	inner := strings.Repeat("  ", depth+1)
	if n.Comment != "" {
		fmt.Fprintf(buf, "%s<comment>%s</comment>\n", inner, escapeXMLText(n.Comment))
	}
	if n.Code != nil {
		if n.Code.Language != "" {
			fmt.Fprintf(buf, "%s<code language=\"%s\">%s</code>\n", inner, escapeXMLAttr(n.Code.Language), escapeXMLText(n.Code.Content))
		} else {
			fmt.Fprintf(buf, "%s<code>%s</code>\n", inner, escapeXMLText(n.Code.Content))
		}
	}
	if n.TaskPrompt != "" {
		fmt.Fprintf(buf, "%s<taskPrompt>%s</taskPrompt>\n", inner, escapeXMLText(n.TaskPrompt))
	}
	if n.CLICommand != "" {
		fmt.Fprintf(buf, "%s<cliCommand>%s</cliCommand>\n", inner, escapeXMLText(n.CLICommand))
	}
	for _, c := range n.Children {
		if err := writeXMLChild(buf, c, depth+1); err != nil {
			return err
		}
	}
	fmt.Fprintf(buf, "%s</%s>\n", indent, xmlNodeElement)
	return nil
}

func xmlAttrValue(n *models.Node, name string) (string, bool) {
	switch name {
	case "id":
		return n.ID, n.ID != ""
	case "title":
		return n.Title, true
	case "priority":
		return string(n.Priority), n.Priority != ""
	case "status":
		return string(n.Status), n.Status != ""
	case "assignee":
		return n.Assignee, n.Assignee != ""
	case "startDate":
		return n.StartDate, n.StartDate != ""
	case "endDate":
		return n.EndDate, n.EndDate != ""
	case "daysSpent":
		if n.DaysSpent == nil {
			return "", false
		}
		return strconv.Itoa(*n.DaysSpent), true
	default:
		return "", false
	}
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escapeXMLText(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func escapeXMLAttr(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;", "\n", "&#xA;", "\t", "&#x9;")
	return r.Replace(s)
}
