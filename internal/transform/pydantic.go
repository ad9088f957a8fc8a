package transform

import (
	"fmt"
	"strings"

	"pymigrate/internal/knowledge"
	"pymigrate/internal/pycst"
)

// Pydantic returns the Tier-1 transformer for the Pydantic v1->v2
// migration, grounded on scenarios S1-S3 of spec.md §8 and on the
// class-body-restructure / decorator-shape rule shapes spec.md §4.4
// mandates.
func Pydantic() *Transformer {
	return &Transformer{
		Library: "pydantic",
		Name:    "pydantic-v1-to-v2",
		Rules: []Rule{
			pydanticMethodRename("dict", "model_dump"),
			pydanticMethodRename("json", "model_dump_json"),
			pydanticValidatorDecorator(),
			pydanticConfigRestructure(),
		},
	}
}

// pydanticMethodRename implements S1: `u.dict()` -> `u.model_dump()`.
// Because the receiver's type is not inferred, the matcher falls back to
// the documented medium-confidence heuristic: any zero-argument call to
// `.<oldName>()` while pydantic is in lexical scope in this file.
func pydanticMethodRename(oldName, newName string) Rule {
	return Rule{
		Name:       "pydantic-method-rename-" + oldName,
		Kind:       RuleMethodRename,
		Confidence: knowledge.ConfidenceMedium,
		Find: func(ctx *Context) []Match {
			if !isLibraryInScope(ctx.Index) {
				return nil
			}
			var out []Match
			for _, callID := range ctx.Tree.Find("call") {
				if calledAttrName(ctx.Tree, callID) != oldName {
					continue
				}
				fn, args := callParts(ctx.Tree, callID)
				if args == pycst.InvalidNodeID || len(ctx.Tree.NamedChildren(args)) != 0 {
					continue
				}
				out = append(out, Match{NodeID: fn})
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			return ctx.Tree.ReplaceAttribute(m.NodeID, "attribute", []byte(newName), "pydantic-method-rename-"+oldName)
		},
	}
}

// pydanticValidatorDecorator implements S2: `@validator("age", pre=True)`
// becomes `@field_validator("age", mode="before")` plus an added
// `@classmethod` decorator, a declared multi-statement rule (decorator +
// function, per spec.md §4.4).
func pydanticValidatorDecorator() Rule {
	return Rule{
		Name:       "pydantic-validator-to-field-validator",
		Kind:       RuleDecoratorShape,
		Confidence: knowledge.ConfidenceHigh,
		Find: func(ctx *Context) []Match {
			var out []Match
			for _, u := range ctx.Index.Usages {
				if u.LocalName != "validator" || ctx.Tree.Type(u.EnclosingID) != "decorator" {
					continue
				}
				out = append(out, Match{NodeID: u.EnclosingID})
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			t := ctx.Tree
			expr := t.NamedChildren(m.NodeID)
			if len(expr) == 0 || t.Type(expr[0]) != "call" {
				return fmt.Errorf("pydantic-validator: decorator is not a call")
			}
			callID := expr[0]
			_, argsID := callParts(t, callID)
			if argsID == pycst.InvalidNodeID {
				return fmt.Errorf("pydantic-validator: no arguments")
			}

			var parts []string
			for _, arg := range t.NamedChildren(argsID) {
				if t.Type(arg) == "keyword_argument" {
					nameID := t.ChildByField(arg, "name")
					if nameID != pycst.InvalidNodeID && t.Text(nameID) == "pre" {
						mode := "after"
						if strings.TrimSpace(keywordValueText(t, arg)) == "True" {
							mode = "before"
						}
						parts = append(parts, fmt.Sprintf("mode=%q", mode))
						continue
					}
				}
				parts = append(parts, t.Text(arg))
			}

			newDecorator := "@field_validator(" + strings.Join(parts, ", ") + ")"
			if err := t.ReplaceNode(m.NodeID, []byte(newDecorator), "pydantic-validator-to-field-validator"); err != nil {
				return err
			}
			if !nextSiblingIsClassmethod(t, m.NodeID) {
				if err := t.InsertStatementAfter(m.NodeID, "@classmethod", "pydantic-validator-to-field-validator"); err != nil {
					return err
				}
			}
			_, err := t.EnsureImport("pydantic", []string{"field_validator"}, "pydantic-validator-to-field-validator")
			return err
		},
	}
}

// nextSiblingIsClassmethod reports whether the decorator immediately
// following decoratorID within its decorated_definition is `@classmethod`
// already, so re-running the rule is idempotent.
func nextSiblingIsClassmethod(t *pycst.Tree, decoratorID pycst.NodeID) bool {
	parent := t.Parent(decoratorID)
	siblings := t.NamedChildren(parent)
	for i, s := range siblings {
		if s == decoratorID && i+1 < len(siblings) {
			next := siblings[i+1]
			if t.Type(next) == "decorator" {
				children := t.NamedChildren(next)
				if len(children) == 1 && t.Type(children[0]) == "identifier" && t.Text(children[0]) == "classmethod" {
					return true
				}
			}
		}
	}
	return false
}

// pydanticConfigRestructure implements S3: an inner `class Config: ...`
// becomes a `model_config = ConfigDict(...)` assignment, with
// `orm_mode`->`from_attributes` and `allow_mutation=False`->`frozen=True`
// key renames, per spec.md §4.4's class-body-restructure rule.
func pydanticConfigRestructure() Rule {
	return Rule{
		Name:       "pydantic-config-restructure",
		Kind:       RuleClassBodyRestructure,
		Confidence: knowledge.ConfidenceHigh,
		Find: func(ctx *Context) []Match {
			t := ctx.Tree
			var out []Match
			for _, classID := range t.Find("class_definition") {
				if !hasBaseModelSuperclass(t, classID) {
					continue
				}
				body := t.ChildByField(classID, "body")
				for _, stmt := range t.NamedChildren(body) {
					if t.Type(stmt) != "class_definition" {
						continue
					}
					nameID := t.ChildByField(stmt, "name")
					if nameID != pycst.InvalidNodeID && t.Text(nameID) == "Config" {
						out = append(out, Match{NodeID: stmt})
					}
				}
			}
			return out
		},
		Apply: func(ctx *Context, m Match) error {
			t := ctx.Tree
			body := t.ChildByField(m.NodeID, "body")
			var kwargs []string
			for _, stmt := range t.NamedChildren(body) {
				if t.Type(stmt) != "expression_statement" {
					continue
				}
				for _, assign := range t.NamedChildren(stmt) {
					if t.Type(assign) != "assignment" {
						continue
					}
					key := t.Text(t.ChildByField(assign, "left"))
					val := t.Text(t.ChildByField(assign, "right"))
					switch key {
					case "orm_mode":
						kwargs = append(kwargs, "from_attributes="+val)
					case "allow_mutation":
						kwargs = append(kwargs, "frozen="+invertBool(val))
					default:
						kwargs = append(kwargs, key+"="+val)
					}
				}
			}
			newStmt := "model_config = ConfigDict(" + strings.Join(kwargs, ", ") + ")"
			if err := t.ReplaceNode(m.NodeID, []byte(newStmt), "pydantic-config-restructure"); err != nil {
				return err
			}
			_, err := t.EnsureImport("pydantic", []string{"ConfigDict"}, "pydantic-config-restructure")
			return err
		},
	}
}

func invertBool(v string) string {
	switch strings.TrimSpace(v) {
	case "True":
		return "False"
	case "False":
		return "True"
	default:
		return v
	}
}

func hasBaseModelSuperclass(t *pycst.Tree, classID pycst.NodeID) bool {
	supers := t.ChildByField(classID, "superclasses")
	if supers == pycst.InvalidNodeID {
		return false
	}
	for _, arg := range t.NamedChildren(supers) {
		if t.Type(arg) == "identifier" && t.Text(arg) == "BaseModel" {
			return true
		}
	}
	return false
}
