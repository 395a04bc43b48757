package descriptor

// Clone returns a deep copy of the descriptor. Resolution and rule merging
// never mutate their inputs; they operate on clones.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Blocks = CloneBlocks(d.Blocks)
	if d.Submission != nil {
		submission := *d.Submission
		out.Submission = &submission
	}
	return out
}

// CloneBlocks deep-copies a block slice.
func CloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	for i, block := range blocks {
		out[i] = block.Clone()
	}
	return out
}

// Clone returns a deep copy of the block.
func (b Block) Clone() Block {
	out := b
	if b.Fields != nil {
		out.Fields = make([]Field, len(b.Fields))
		for i, field := range b.Fields {
			out.Fields[i] = field.Clone()
		}
	}
	if b.Status != nil {
		status := *b.Status
		out.Status = &status
	}
	if b.MinInstances != nil {
		v := *b.MinInstances
		out.MinInstances = &v
	}
	if b.MaxInstances != nil {
		v := *b.MaxInstances
		out.MaxInstances = &v
	}
	if b.PopinConfig != nil {
		cfg := *b.PopinConfig
		out.PopinConfig = &cfg
	}
	return out
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Items != nil {
		out.Items = append([]Option(nil), f.Items...)
	}
	if f.DataSource != nil {
		ds := *f.DataSource
		out.DataSource = &ds
	}
	if f.Validation != nil {
		out.Validation = append([]ValidationRule(nil), f.Validation...)
	}
	if f.Status != nil {
		status := *f.Status
		out.Status = &status
	}
	out.DefaultValue = cloneValue(f.DefaultValue)
	return out
}

// Clone returns a deep copy of the sub-form document.
func (s SubForm) Clone() SubForm {
	out := s
	out.Blocks = CloneBlocks(s.Blocks)
	if s.Submission != nil {
		submission := *s.Submission
		out.Submission = &submission
	}
	return out
}

// Clone returns a copy of the case context. Values are shallow-copied except
// for string arrays, which are duplicated.
func (c CaseContext) Clone() CaseContext {
	if c == nil {
		return nil
	}
	out := make(CaseContext, len(c))
	for key, value := range c {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[key] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, val := range typed {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
