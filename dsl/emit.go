package dsl

import (
	"fmt"
	"strings"

	"github.com/lukacu/routio/errors"
)

// Language selects the emitter's target, mirroring the reference
// compiler's OutputLanguage enum.
type Language string

const (
	LanguageCPP    Language = "cpp"
	LanguagePython Language = "python"
)

// Emit generates one target-language source module for desc: enum
// definitions, struct definitions with ordered fields, for C++ a serializer
// pair per struct (the Python output has none; it registers each message
// class with register_type instead), and per-message a typed
// publisher/subscriber pair bound to its type identifier (§4.7). The output is plain text; Routio never
// compiles or runs it.
func Emit(desc *Description, lang Language) (string, error) {
	switch lang {
	case LanguageCPP:
		return emitCPP(desc), nil
	case LanguagePython:
		return emitPython(desc), nil
	default:
		return "", errors.WrapInvalid(fmt.Errorf("unknown output language %q", lang), "dsl", "Emit")
	}
}

func namespaceParts(desc *Description) []string {
	if desc.Namespace == nil {
		return nil
	}
	return strings.Split(desc.Namespace.Name, ".")
}

func cppFieldType(f Field) string {
	base := cppScalarType(f.Type)
	if f.Array == nil {
		return base
	}
	if f.Array.Length != nil {
		return fmt.Sprintf("std::array<%s, %d>", base, *f.Array.Length)
	}
	return fmt.Sprintf("std::vector<%s>", base)
}

func cppScalarType(t string) string {
	switch t {
	case "int32":
		return "int32_t"
	case "int64":
		return "int64_t"
	case "float32":
		return "float"
	case "float64":
		return "double"
	case "string":
		return "std::string"
	case "bytes":
		return "std::vector<uint8_t>"
	case "timestamp":
		return "routio::Timestamp"
	default:
		return t
	}
}

func emitCPP(desc *Description) string {
	var b strings.Builder
	b.WriteString("// Generated by the routio message description compiler. Do not edit.\n")
	b.WriteString("#pragma once\n\n#include <cstdint>\n#include <string>\n#include <vector>\n#include <array>\n#include \"routio/datatypes.h\"\n#include \"routio/client.h\"\n\n")

	parts := namespaceParts(desc)
	for _, p := range parts {
		fmt.Fprintf(&b, "namespace %s {\n", p)
	}
	b.WriteString("\n")

	for _, d := range desc.Decls {
		switch {
		case d.Enumerate != nil:
			e := d.Enumerate
			fmt.Fprintf(&b, "enum class %s {\n", e.Name)
			for i, v := range e.Values {
				fmt.Fprintf(&b, "    %s = %d,\n", v, i)
			}
			b.WriteString("};\n\n")
		case d.Structure != nil:
			writeCPPStruct(&b, d.Structure.Name, d.Structure.Fields)
		case d.Message != nil:
			writeCPPStruct(&b, d.Message.Name, d.Message.Fields)
			hash := TypeIdentifier(d.Message.Name, d.Message.Fields)
			fmt.Fprintf(&b, "template <> inline std::string get_type_identifier<%s>() { return \"%s\"; }\n", d.Message.Name, hash)
			fmt.Fprintf(&b, "using %sPublisher = routio::TypedPublisher<%s>;\n", d.Message.Name, d.Message.Name)
			fmt.Fprintf(&b, "using %sSubscriber = routio::TypedSubscriber<%s>;\n\n", d.Message.Name, d.Message.Name)
		case d.External != nil:
			fmt.Fprintf(&b, "// external %s: native converter supplied per language, see routio/%s.h\n\n", d.External.Name, strings.ToLower(d.External.Name))
		case d.Include != nil:
			fmt.Fprintf(&b, "#include \"%s\"\n", d.Include.File)
		case d.Import != nil:
			fmt.Fprintf(&b, "// import %s\n", d.Import.File)
		}
	}

	for i := len(parts) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "} // namespace %s\n", parts[i])
	}
	return b.String()
}

func writeCPPStruct(b *strings.Builder, name string, fields []Field) {
	fmt.Fprintf(b, "struct %s {\n", name)
	for _, f := range fields {
		fmt.Fprintf(b, "    %s %s{};\n", cppFieldType(f), f.Name)
	}
	b.WriteString("};\n\n")

	fmt.Fprintf(b, "inline void pack(routio::Writer& w, const %s& v) {\n", name)
	for _, f := range fields {
		fmt.Fprintf(b, "    w.write(v.%s);\n", f.Name)
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "inline %s unpack_%s(routio::Reader& r) {\n    %s v;\n", name, strings.ToLower(name), name)
	for _, f := range fields {
		fmt.Fprintf(b, "    r.read(v.%s);\n", f.Name)
	}
	b.WriteString("    return v;\n}\n\n")
}

func pythonFieldType(f Field) string {
	base := pythonScalarType(f.Type)
	if f.Array == nil {
		return base
	}
	return fmt.Sprintf("list[%s]", base)
}

func pythonScalarType(t string) string {
	switch t {
	case "int32", "int64":
		return "int"
	case "float32", "float64":
		return "float"
	case "string":
		return "str"
	case "bytes":
		return "bytes"
	case "timestamp":
		return "datetime.datetime"
	default:
		return t
	}
}

func emitPython(desc *Description) string {
	var b strings.Builder
	b.WriteString("# Generated by the routio message description compiler. Do not edit.\n")
	b.WriteString("import datetime\nimport routio\nfrom dataclasses import dataclass, field\nfrom enum import IntEnum\n\n")

	for _, d := range desc.Decls {
		switch {
		case d.Enumerate != nil:
			e := d.Enumerate
			fmt.Fprintf(&b, "class %s(IntEnum):\n", e.Name)
			for i, v := range e.Values {
				fmt.Fprintf(&b, "    %s = %d\n", v, i)
			}
			b.WriteString("\n\n")
		case d.Structure != nil:
			writePythonClass(&b, d.Structure.Name, d.Structure.Fields)
		case d.Message != nil:
			writePythonClass(&b, d.Message.Name, d.Message.Fields)
			hash := TypeIdentifier(d.Message.Name, d.Message.Fields)
			fmt.Fprintf(&b, "routio.register_type(%s, \"%s\")\n", d.Message.Name, hash)
			fmt.Fprintf(&b, "def %s_publisher(client, alias):\n    return routio.TypedPublisher(client, alias, %s, \"%s\")\n\n", strings.ToLower(d.Message.Name), d.Message.Name, hash)
			fmt.Fprintf(&b, "def %s_subscriber(client, alias, callback):\n    return routio.TypedSubscriber(client, alias, %s, \"%s\", callback)\n\n\n", strings.ToLower(d.Message.Name), d.Message.Name, hash)
		case d.External != nil:
			fmt.Fprintf(&b, "# external %s: native converter supplied per language\n\n", d.External.Name)
		case d.Include != nil:
			fmt.Fprintf(&b, "# include %s\n", d.Include.File)
		case d.Import != nil:
			fmt.Fprintf(&b, "# import %s\n", d.Import.File)
		}
	}
	return b.String()
}

func writePythonClass(b *strings.Builder, name string, fields []Field) {
	b.WriteString("@dataclass\n")
	fmt.Fprintf(b, "class %s:\n", name)
	if len(fields) == 0 {
		b.WriteString("    pass\n\n\n")
		return
	}
	for _, f := range fields {
		if f.Array != nil {
			fmt.Fprintf(b, "    %s: %s = field(default_factory=list)\n", f.Name, pythonFieldType(f))
		} else {
			fmt.Fprintf(b, "    %s: %s = %s\n", f.Name, pythonFieldType(f), pythonZero(f.Type))
		}
	}
	b.WriteString("\n\n")
}

func pythonZero(t string) string {
	switch t {
	case "int32", "int64":
		return "0"
	case "float32", "float64":
		return "0.0"
	case "string":
		return "\"\""
	case "bytes":
		return "b\"\""
	case "timestamp":
		return "datetime.datetime.min"
	default:
		return "None"
	}
}
