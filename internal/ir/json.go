package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonInstruction is the wire shape of an Instruction: a flat object with
// every variant's fields marked omitempty, mirroring the untagged serde
// enum this schema was distilled from (original_source/brilro/src/parser/
// ast.rs). Using one flat struct for all four variants means ordinary
// encoding/json round-trips it without a custom tag dispatch — the closed
// sum lives in Instruction.Form(), not in the wire format.
type jsonInstruction struct {
	Op     Op       `json:"op,omitempty"`
	Dest   string   `json:"dest,omitempty"`
	Type   string   `json:"type,omitempty"`
	Value  *json.RawMessage `json:"value,omitempty"`
	Args   []string `json:"args,omitempty"`
	Funcs  []string `json:"funcs,omitempty"`
	Labels []string `json:"labels,omitempty"`
	Label  string   `json:"label,omitempty"`
	Pos    *Pos     `json:"pos,omitempty"`
	PosEnd *Pos     `json:"pos_end,omitempty"`
	Src    *string  `json:"src,omitempty"`
}

func (i Instruction) MarshalJSON() ([]byte, error) {
	w := jsonInstruction{
		Op:     i.Op,
		Dest:   i.Dest,
		Args:   i.Args,
		Funcs:  i.Funcs,
		Labels: i.Labels,
		Label:  i.Label,
	}
	if i.HasDest() {
		w.Type = i.Type.String()
	}
	if i.Form() == FormConstant {
		raw, err := marshalLiteral(i.Value)
		if err != nil {
			return nil, err
		}
		w.Value = &raw
	}
	if i.Span != nil {
		w.Pos = &i.Span.Pos
		w.PosEnd = i.Span.PosEnd
		w.Src = i.Span.Src
	}
	return json.Marshal(w)
}

func (i *Instruction) UnmarshalJSON(data []byte) error {
	var w jsonInstruction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	i.Op = w.Op
	i.Dest = w.Dest
	i.Args = w.Args
	i.Funcs = w.Funcs
	i.Labels = w.Labels
	i.Label = w.Label

	if w.Type != "" {
		ty, err := ParseType(w.Type)
		if err != nil {
			return err
		}
		i.Type = ty
	}

	if w.Value != nil {
		lit, err := unmarshalLiteral(*w.Value)
		if err != nil {
			return err
		}
		i.Value = lit
	}

	if w.Pos != nil || w.PosEnd != nil || w.Src != nil {
		span := &Span{PosEnd: w.PosEnd, Src: w.Src}
		if w.Pos != nil {
			span.Pos = *w.Pos
		}
		i.Span = span
	}
	return nil
}

func marshalLiteral(l Literal) (json.RawMessage, error) {
	if l.IsBool {
		return json.Marshal(l.Bool)
	}
	return json.Marshal(l.Int)
}

// unmarshalLiteral decodes a Bril literal, which is untagged JSON: either a
// boolean or an integer. encoding/json's default `any` would decode numbers
// as float64, which loses precision for large int64 values, so the raw
// token is inspected directly instead.
func unmarshalLiteral(raw json.RawMessage) (Literal, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("true")) {
		return BoolLiteral(true), nil
	}
	if bytes.Equal(trimmed, []byte("false")) {
		return BoolLiteral(false), nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return Literal{}, fmt.Errorf("ir: invalid literal %s: %w", raw, err)
	}
	v, err := n.Int64()
	if err != nil {
		return Literal{}, fmt.Errorf("ir: literal %s is not a 64-bit integer: %w", raw, err)
	}
	return IntLiteral(v), nil
}

// jsonArg mirrors Argument's wire shape ({"name": ..., "type": ...}).
type jsonArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// jsonFunction mirrors Function's wire shape.
type jsonFunction struct {
	Name   string        `json:"name"`
	Args   []jsonArg     `json:"args,omitempty"`
	Type   string        `json:"type,omitempty"`
	Instrs []Instruction `json:"instrs"`
	Pos    *Pos          `json:"pos,omitempty"`
	PosEnd *Pos          `json:"pos_end,omitempty"`
	Src    *string       `json:"src,omitempty"`
}

func (f Function) MarshalJSON() ([]byte, error) {
	w := jsonFunction{Name: f.Name, Instrs: f.Instrs}
	for _, a := range f.Args {
		w.Args = append(w.Args, jsonArg{Name: a.Name, Type: a.Type.String()})
	}
	if f.ReturnType != nil {
		w.Type = f.ReturnType.String()
	}
	if f.Span != nil {
		w.Pos = &f.Span.Pos
		w.PosEnd = f.Span.PosEnd
		w.Src = f.Span.Src
	}
	return json.Marshal(w)
}

func (f *Function) UnmarshalJSON(data []byte) error {
	var w jsonFunction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.Name = w.Name
	f.Instrs = w.Instrs
	for _, a := range w.Args {
		ty, err := ParseType(a.Type)
		if err != nil {
			return fmt.Errorf("ir: function %s arg %s: %w", w.Name, a.Name, err)
		}
		f.Args = append(f.Args, Argument{Name: a.Name, Type: ty})
	}
	if w.Type != "" {
		ty, err := ParseType(w.Type)
		if err != nil {
			return fmt.Errorf("ir: function %s return type: %w", w.Name, err)
		}
		f.ReturnType = &ty
	}
	if w.Pos != nil || w.PosEnd != nil || w.Src != nil {
		span := &Span{PosEnd: w.PosEnd, Src: w.Src}
		if w.Pos != nil {
			span.Pos = *w.Pos
		}
		f.Span = span
	}
	return nil
}

// jsonProgram mirrors Program's wire shape: a bare {"functions": [...]}.
type jsonProgram struct {
	Functions []Function `json:"functions,omitempty"`
}

func (p Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonProgram{Functions: p.Functions})
}

func (p *Program) UnmarshalJSON(data []byte) error {
	var w jsonProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Functions = w.Functions
	return nil
}

// ParseProgram decodes a Program from its JSON wire form, per spec.md §6.
func ParseProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("ir: parse program: %w", err)
	}
	return &p, nil
}

// PrettyJSON renders a Program as pretty JSON, per spec.md §6.
func PrettyJSON(p *Program) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
