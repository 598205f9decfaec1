package dsl

import (
	"strconv"

	"github.com/lukacu/routio/errors"
)

// Parse parses one description source file into its AST, per the grammar
// in §4.7. filename is used only for diagnostics.
func Parse(filename, text string) (*Description, error) {
	p := &parser{lex: newLexer(filename, text), file: filename}
	return p.parseDescription()
}

type parser struct {
	lex  *lexer
	file string
}

func (p *parser) errAt(pos Position, msg string) error {
	return errors.WrapInvalid(&ParseError{Pos: pos, Msg: msg}, "dsl.parser", "parse")
}

func (p *parser) expect(k tokenKind, msg string) (token, error) {
	t, err := p.lex.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != k {
		return token{}, p.errAt(t.pos, msg)
	}
	return t, nil
}

func (p *parser) match(k tokenKind) (bool, error) {
	t, err := p.lex.peek(0)
	if err != nil {
		return false, err
	}
	if t.kind != k {
		return false, nil
	}
	if _, err := p.lex.next(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *parser) isKeyword(kw string) (bool, error) {
	t, err := p.lex.peek(0)
	if err != nil {
		return false, err
	}
	return t.kind == tokIdent && t.lexeme == kw, nil
}

func (p *parser) expectKeyword(kw string) (token, error) {
	t, err := p.lex.next()
	if err != nil {
		return token{}, err
	}
	if t.kind != tokIdent || t.lexeme != kw {
		return token{}, p.errAt(t.pos, "expected keyword '"+kw+"'")
	}
	return t, nil
}

func (p *parser) parseDescription() (*Description, error) {
	desc := &Description{}

	isNS, err := p.isKeyword("namespace")
	if err != nil {
		return nil, err
	}
	if isNS {
		ns, err := p.parseNamespace()
		if err != nil {
			return nil, err
		}
		desc.Namespace = ns
	}

	for {
		t, err := p.lex.peek(0)
		if err != nil {
			return nil, err
		}
		if t.kind == tokEnd {
			break
		}
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		desc.Decls = append(desc.Decls, decl)
	}

	if _, err := p.expect(tokEnd, "expected end of input"); err != nil {
		return nil, err
	}
	return desc, nil
}

func (p *parser) parseNamespace() (*Namespace, error) {
	if _, err := p.expectKeyword("namespace"); err != nil {
		return nil, err
	}
	first, err := p.expect(tokIdent, "expected namespace name")
	if err != nil {
		return nil, err
	}
	name := first.lexeme
	for {
		ok, err := p.match(tokDot)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		part, err := p.expect(tokIdent, "expected namespace segment after '.'")
		if err != nil {
			return nil, err
		}
		name += "." + part.lexeme
	}
	if _, err := p.expect(tokSemicolon, "expected ';' after namespace"); err != nil {
		return nil, err
	}
	return &Namespace{Name: name}, nil
}

func (p *parser) parseDecl() (Decl, error) {
	t, err := p.lex.peek(0)
	if err != nil {
		return Decl{}, err
	}
	if t.kind != tokIdent {
		return Decl{}, p.errAt(t.pos, "expected a declaration keyword")
	}

	switch t.lexeme {
	case "enumerate":
		e, err := p.parseEnumerate()
		return Decl{Enumerate: e}, err
	case "include":
		inc, err := p.parseInclude()
		return Decl{Include: inc}, err
	case "import":
		imp, err := p.parseImport()
		return Decl{Import: imp}, err
	case "external":
		ext, err := p.parseExternal()
		return Decl{External: ext}, err
	case "structure":
		s, err := p.parseStructure()
		return Decl{Structure: s}, err
	case "message":
		m, err := p.parseMessage()
		return Decl{Message: m}, err
	default:
		return Decl{}, p.errAt(t.pos, "unknown declaration keyword: "+t.lexeme)
	}
}

func (p *parser) parseValue() (Value, error) {
	t, err := p.lex.peek(0)
	if err != nil {
		return Value{}, err
	}

	if t.kind == tokNumber {
		t, err = p.lex.next()
		if err != nil {
			return Value{}, err
		}
		n, perr := strconv.ParseFloat(t.lexeme, 64)
		if perr != nil {
			return Value{}, p.errAt(t.pos, "invalid numeric literal")
		}
		return Value{Number: n, IsFloat: true}, nil
	}

	if t.kind == tokString {
		t, err = p.lex.next()
		if err != nil {
			return Value{}, err
		}
		return Value{String: unquote(t.lexeme)}, nil
	}

	if t.kind == tokIdent && (t.lexeme == "true" || t.lexeme == "false") {
		if _, err := p.lex.next(); err != nil {
			return Value{}, err
		}
		return Value{Bool: t.lexeme == "true", IsBool: true}, nil
	}

	return Value{}, p.errAt(t.pos, "expected value (number, string, or boolean)")
}

func (p *parser) parseKeywordProperty() (KeywordArg, error) {
	nameTok, err := p.expect(tokIdent, "expected property name")
	if err != nil {
		return KeywordArg{}, err
	}
	if _, err := p.expect(tokEquals, "expected '=' in keyword property"); err != nil {
		return KeywordArg{}, err
	}
	v, err := p.parseValue()
	if err != nil {
		return KeywordArg{}, err
	}
	return KeywordArg{Name: nameTok.lexeme, Value: v}, nil
}

func (p *parser) peekIsKeywordProperty() (bool, error) {
	t0, err := p.lex.peek(0)
	if err != nil {
		return false, err
	}
	t1, err := p.lex.peek(1)
	if err != nil {
		return false, err
	}
	return t0.kind == tokIdent && t1.kind == tokEquals, nil
}

func (p *parser) parseProperties() (*Properties, error) {
	props := &Properties{}
	if _, err := p.expect(tokLParen, "expected '(' to start property list"); err != nil {
		return nil, err
	}

	kwFirst, err := p.peekIsKeywordProperty()
	if err != nil {
		return nil, err
	}
	next, err := p.lex.peek(0)
	if err != nil {
		return nil, err
	}

	if kwFirst {
		kw, err := p.parseKeywordProperty()
		if err != nil {
			return nil, err
		}
		props.Kwargs = append(props.Kwargs, kw)
		for {
			ok, err := p.match(tokColon)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			isKw, err := p.peekIsKeywordProperty()
			if err != nil {
				return nil, err
			}
			if !isKw {
				t, _ := p.lex.peek(0)
				return nil, p.errAt(t.pos, "expected keyword property name=value after ':'")
			}
			kw, err := p.parseKeywordProperty()
			if err != nil {
				return nil, err
			}
			props.Kwargs = append(props.Kwargs, kw)
		}
	} else if next.kind != tokRParen {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		props.Args = append(props.Args, v)
		for {
			ok, err := p.match(tokColon)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			isKw, err := p.peekIsKeywordProperty()
			if err != nil {
				return nil, err
			}
			if isKw {
				kw, err := p.parseKeywordProperty()
				if err != nil {
					return nil, err
				}
				props.Kwargs = append(props.Kwargs, kw)
				for {
					ok, err := p.match(tokColon)
					if err != nil {
						return nil, err
					}
					if !ok {
						break
					}
					isKw2, err := p.peekIsKeywordProperty()
					if err != nil {
						return nil, err
					}
					if !isKw2 {
						t, _ := p.lex.peek(0)
						return nil, p.errAt(t.pos, "expected keyword property name=value after ':'")
					}
					kw, err := p.parseKeywordProperty()
					if err != nil {
						return nil, err
					}
					props.Kwargs = append(props.Kwargs, kw)
				}
				break
			}
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			props.Args = append(props.Args, v)
		}
	}

	if _, err := p.expect(tokRParen, "expected ')' to end property list"); err != nil {
		return nil, err
	}
	return props, nil
}

func (p *parser) parseOptionalArray() (*FieldArray, error) {
	ok, err := p.match(tokLBrack)
	if err != nil || !ok {
		return nil, err
	}
	arr := &FieldArray{}
	t, err := p.lex.peek(0)
	if err != nil {
		return nil, err
	}
	if t.kind == tokNumber {
		numTok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if len(numTok.lexeme) > 0 && (numTok.lexeme[0] == '+' || numTok.lexeme[0] == '-') {
			return nil, p.errAt(numTok.pos, "array length must be a non-negative integer")
		}
		n, perr := strconv.Atoi(numTok.lexeme)
		if perr != nil {
			return nil, p.errAt(numTok.pos, "array length must be an integer")
		}
		arr.Length = &n
	}
	if _, err := p.expect(tokRBrack, "expected ']' after array specifier"); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *parser) parseField() (Field, error) {
	var f Field
	typeTok, err := p.expect(tokIdent, "expected field type")
	if err != nil {
		return Field{}, err
	}
	f.Type = typeTok.lexeme
	f.Pos = typeTok.pos

	f.Array, err = p.parseOptionalArray()
	if err != nil {
		return Field{}, err
	}

	nameTok, err := p.expect(tokIdent, "expected field name")
	if err != nil {
		return Field{}, err
	}
	f.Name = nameTok.lexeme

	t, err := p.lex.peek(0)
	if err != nil {
		return Field{}, err
	}
	if t.kind == tokLParen {
		f.Properties, err = p.parseProperties()
		if err != nil {
			return Field{}, err
		}
	}

	hasDefault, err := p.match(tokEquals)
	if err != nil {
		return Field{}, err
	}
	if hasDefault {
		v, err := p.parseValue()
		if err != nil {
			return Field{}, err
		}
		f.Default = &v
	}

	if _, err := p.expect(tokSemicolon, "expected ';' after field"); err != nil {
		return Field{}, err
	}
	return f, nil
}

func (p *parser) parseFieldList() ([]Field, error) {
	if _, err := p.expect(tokLBrace, "expected '{' to start field list"); err != nil {
		return nil, err
	}
	var fields []Field
	for {
		t, err := p.lex.peek(0)
		if err != nil {
			return nil, err
		}
		if t.kind == tokRBrace {
			break
		}
		if t.kind == tokEnd {
			return nil, p.errAt(t.pos, "unterminated field list; expected '}'")
		}
		f, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if _, err := p.expect(tokRBrace, "expected '}' to end field list"); err != nil {
		return nil, err
	}
	return fields, nil
}

func (p *parser) parseEnumerate() (*Enumerate, error) {
	kw, err := p.expectKeyword("enumerate")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokIdent, "expected enumerate name")
	if err != nil {
		return nil, err
	}
	e := &Enumerate{Name: nameTok.lexeme, Pos: kw.pos}

	if _, err := p.expect(tokLBrace, "expected '{' after enumerate name"); err != nil {
		return nil, err
	}
	t, err := p.lex.peek(0)
	if err != nil {
		return nil, err
	}
	if t.kind != tokRBrace {
		v, err := p.expect(tokIdent, "expected enumerate value")
		if err != nil {
			return nil, err
		}
		e.Values = append(e.Values, v.lexeme)
		for {
			ok, err := p.match(tokComma)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			v, err := p.expect(tokIdent, "expected enumerate value")
			if err != nil {
				return nil, err
			}
			e.Values = append(e.Values, v.lexeme)
		}
	}
	if _, err := p.expect(tokRBrace, "expected '}' to end enumerate"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseInclude() (*Include, error) {
	kw, err := p.expectKeyword("include")
	if err != nil {
		return nil, err
	}
	fileTok, err := p.expect(tokString, "expected quoted filename after 'include'")
	if err != nil {
		return nil, err
	}
	inc := &Include{File: unquote(fileTok.lexeme), Pos: kw.pos}

	t, err := p.lex.peek(0)
	if err != nil {
		return nil, err
	}
	if t.kind == tokLParen {
		inc.Properties, err = p.parseProperties()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(tokSemicolon, "expected ';' after include"); err != nil {
		return nil, err
	}
	return inc, nil
}

func (p *parser) parseImport() (*Import, error) {
	kw, err := p.expectKeyword("import")
	if err != nil {
		return nil, err
	}
	fileTok, err := p.expect(tokString, "expected quoted filename after 'import'")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "expected ';' after import"); err != nil {
		return nil, err
	}
	return &Import{File: unquote(fileTok.lexeme), Pos: kw.pos}, nil
}

func (p *parser) parseExternalLanguage() (ExternalLanguage, error) {
	if _, err := p.expectKeyword("language"); err != nil {
		return ExternalLanguage{}, err
	}
	langTok, err := p.expect(tokIdent, "expected language name after 'language'")
	if err != nil {
		return ExternalLanguage{}, err
	}
	contTok, err := p.expect(tokString, "expected container string after language name")
	if err != nil {
		return ExternalLanguage{}, err
	}
	el := ExternalLanguage{Language: langTok.lexeme, Container: unquote(contTok.lexeme)}

	isFrom, err := p.isKeyword("from")
	if err != nil {
		return ExternalLanguage{}, err
	}
	if isFrom {
		if _, err := p.lex.next(); err != nil {
			return ExternalLanguage{}, err
		}
		t, err := p.lex.peek(0)
		if err != nil {
			return ExternalLanguage{}, err
		}
		if t.kind != tokString {
			return ExternalLanguage{}, p.errAt(t.pos, "expected at least one source string after 'from'")
		}
		for {
			t, err := p.lex.peek(0)
			if err != nil {
				return ExternalLanguage{}, err
			}
			if t.kind != tokString {
				break
			}
			s, err := p.lex.next()
			if err != nil {
				return ExternalLanguage{}, err
			}
			el.Sources = append(el.Sources, unquote(s.lexeme))
		}
	}

	isDefault, err := p.isKeyword("default")
	if err != nil {
		return ExternalLanguage{}, err
	}
	if isDefault {
		if _, err := p.lex.next(); err != nil {
			return ExternalLanguage{}, err
		}
		d, err := p.expect(tokString, "expected default string after 'default'")
		if err != nil {
			return ExternalLanguage{}, err
		}
		el.Default = unquote(d.lexeme)
	}

	isRead, err := p.isKeyword("read")
	if err != nil {
		return ExternalLanguage{}, err
	}
	if isRead {
		if _, err := p.lex.next(); err != nil {
			return ExternalLanguage{}, err
		}
		r, err := p.expect(tokString, "expected read string after 'read'")
		if err != nil {
			return ExternalLanguage{}, err
		}
		el.Read = unquote(r.lexeme)
		if _, err := p.expectKeyword("write"); err != nil {
			return ExternalLanguage{}, err
		}
		w, err := p.expect(tokString, "expected write string after 'write'")
		if err != nil {
			return ExternalLanguage{}, err
		}
		el.Write = unquote(w.lexeme)
	}

	if _, err := p.expect(tokSemicolon, "expected ';' after language entry"); err != nil {
		return ExternalLanguage{}, err
	}
	return el, nil
}

func (p *parser) parseExternalLanguageList() ([]ExternalLanguage, error) {
	if _, err := p.expect(tokLParen, "expected '(' to start external language list"); err != nil {
		return nil, err
	}
	var langs []ExternalLanguage
	for {
		t, err := p.lex.peek(0)
		if err != nil {
			return nil, err
		}
		if t.kind == tokRParen {
			break
		}
		if t.kind == tokEnd {
			return nil, p.errAt(t.pos, "unterminated external language list; expected ')'")
		}
		isLang, err := p.isKeyword("language")
		if err != nil {
			return nil, err
		}
		if !isLang {
			return nil, p.errAt(t.pos, "expected 'language' entry inside external language list")
		}
		el, err := p.parseExternalLanguage()
		if err != nil {
			return nil, err
		}
		langs = append(langs, el)
	}
	if _, err := p.expect(tokRParen, "expected ')' to end external language list"); err != nil {
		return nil, err
	}
	return langs, nil
}

func (p *parser) parseExternal() (*External, error) {
	kw, err := p.expectKeyword("external")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokIdent, "expected external structure name")
	if err != nil {
		return nil, err
	}
	ex := &External{Name: nameTok.lexeme, Pos: kw.pos}
	ex.Languages, err = p.parseExternalLanguageList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "expected ';' after external"); err != nil {
		return nil, err
	}
	return ex, nil
}

func (p *parser) parseStructure() (*Structure, error) {
	kw, err := p.expectKeyword("structure")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokIdent, "expected structure name")
	if err != nil {
		return nil, err
	}
	s := &Structure{Name: nameTok.lexeme, Pos: kw.pos}
	s.Fields, err = p.parseFieldList()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) parseMessage() (*Message, error) {
	kw, err := p.expectKeyword("message")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(tokIdent, "expected message name")
	if err != nil {
		return nil, err
	}
	m := &Message{Name: nameTok.lexeme, Pos: kw.pos}
	m.Fields, err = p.parseFieldList()
	if err != nil {
		return nil, err
	}
	return m, nil
}
