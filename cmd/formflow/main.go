package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/openapi"
	"github.com/goliatone/go-formflow/pkg/pipeline"
	"github.com/goliatone/go-formflow/pkg/resolve"
	"github.com/goliatone/go-formflow/pkg/tui"
)

func main() {
	mode := flag.String("mode", "resolve", "resolve | defaults | validate | fill | import")
	descriptorPath := flag.String("descriptor", "form.json", "descriptor document path")
	subFormsDir := flag.String("subforms", "", "directory holding sub-form documents")
	casePath := flag.String("case", "", "case context JSON path")
	valuesPath := flag.String("values", "", "values JSON path (validate mode)")
	source := flag.String("source", "", "OpenAPI document path (import mode)")
	operation := flag.String("operation", "", "operation id (import mode)")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	ctx := context.Background()

	if *mode == "import" {
		raw, err := os.ReadFile(*source)
		if err != nil {
			log.Fatalf("read OpenAPI document: %v", err)
		}
		d, err := openapi.Import(ctx, raw, openapi.ImportOptions{OperationID: *operation})
		if err != nil {
			log.Fatalf("import descriptor: %v", err)
		}
		emit(*output, d)
		return
	}

	raw, err := os.ReadFile(*descriptorPath)
	if err != nil {
		log.Fatalf("read descriptor: %v", err)
	}
	d, err := descriptor.Parse(raw)
	if err != nil {
		log.Fatalf("parse descriptor: %v", err)
	}

	repo := resolve.NewRepository()
	if *subFormsDir != "" {
		if err := repo.LoadFS(os.DirFS(*subFormsDir)); err != nil {
			log.Fatalf("load sub-forms: %v", err)
		}
	}

	engine := pipeline.New(pipeline.WithSubFormProvider(repo))
	resolved, err := engine.ResolveReferences(ctx, d)
	if err != nil {
		log.Fatalf("resolve references: %v", err)
	}

	caseCtx := descriptor.CaseContext{}
	if *casePath != "" {
		if err := readJSON(*casePath, &caseCtx); err != nil {
			log.Fatalf("read case context: %v", err)
		}
	}

	switch *mode {
	case "resolve":
		emit(*output, resolved)
	case "defaults":
		emit(*output, engine.ExtractDefaults(resolved, caseCtx))
	case "validate":
		if *valuesPath == "" {
			log.Fatal("validate mode requires -values")
		}
		var values map[string]any
		if err := readJSON(*valuesPath, &values); err != nil {
			log.Fatalf("read values: %v", err)
		}
		schema, err := engine.CompileSchema(resolved)
		if err != nil {
			log.Fatalf("compile schema: %v", err)
		}
		emit(*output, schema.Validate(values))
	case "fill":
		schema, err := engine.CompileSchema(resolved)
		if err != nil {
			log.Fatalf("compile schema: %v", err)
		}
		values, result, err := tui.New(engine).Fill(ctx, resolved, schema, caseCtx)
		if err != nil {
			log.Fatalf("fill form: %v", err)
		}
		if !result.Valid {
			for _, issue := range result.Issues {
				fmt.Fprintf(os.Stderr, "%s: %s\n", issue.Path, issue.Message)
			}
		}
		emit(*output, values)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func readJSON(path string, target any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, target)
}

func emit(output string, payload any) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("encode output: %v", err)
	}
	data = append(data, '\n')

	if output != "" {
		if err := os.WriteFile(output, data, 0o644); err != nil {
			log.Fatalf("write output: %v", err)
		}
		fmt.Printf("Written to %s\n", output)
		return
	}
	os.Stdout.Write(data)
}
