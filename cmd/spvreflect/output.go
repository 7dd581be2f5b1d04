package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/spirv-reflect/reflect"
)

var (
	fileStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	setStyle = lipgloss.NewStyle().
			Bold(true)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func writeReports(w io.Writer, format string, reports []report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeText(w, r)
	}
	return nil
}

func writeText(w io.Writer, r report) {
	fmt.Fprintf(w, "%s %s\n", fileStyle.Render(r.File),
		dimStyle.Render(fmt.Sprintf("(%d bytes, SPIR-V %s, %s)", r.CodeSize, r.Version, r.Fingerprint)))
	if len(r.Sets) == 0 {
		fmt.Fprintln(w, dimStyle.Render("  no descriptor bindings"))
		return
	}
	for _, s := range r.Sets {
		fmt.Fprintf(w, "  %s\n", setStyle.Render(fmt.Sprintf("set %d", s.Set)))
		for _, b := range s.Bindings {
			fmt.Fprintf(w, "    binding %-3d %s %s%s\n",
				b.Binding,
				kindStyle.Render(fmt.Sprintf("%-22s", b.DescriptorType)),
				nameStyle.Render(bindingName(b)),
				dimStyle.Render(bindingDetail(b)))
		}
	}
}

func bindingName(b reflect.DescriptorBinding) string {
	if b.Name != "" {
		return b.Name
	}
	return "%" + strconv.FormatUint(uint64(b.SpirvID), 10)
}

// bindingDetail renders array dimensions and image traits in compact form.
func bindingDetail(b reflect.DescriptorBinding) string {
	var sb strings.Builder
	for _, d := range b.Array.Dims {
		if d == reflect.CountUnbounded {
			sb.WriteString("[]")
		} else {
			fmt.Fprintf(&sb, "[%d]", d)
		}
	}
	var tags []string
	if b.TypeName != "" {
		tags = append(tags, b.TypeName)
	}
	if b.Image != nil {
		tags = append(tags, b.Image.Dim.String())
		if b.Image.Arrayed {
			tags = append(tags, "arrayed")
		}
		if b.Image.Multisampled {
			tags = append(tags, "ms")
		}
	}
	if b.DescriptorType == reflect.DescriptorTypeInputAttachment {
		tags = append(tags, fmt.Sprintf("attachment %d", b.InputAttachmentIndex))
	}
	tags = append(tags, b.ResourceType.String())
	fmt.Fprintf(&sb, " (%s)", strings.Join(tags, ", "))
	return sb.String()
}
