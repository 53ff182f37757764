package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/beltline/beltline/internal/compiler"
	"github.com/beltline/beltline/internal/plan"
)

// outputCatalogErrors prints every compilation error in the configured
// format and returns an ExitError. Catalog problems are validation
// failures (exit code 1) rather than command errors.
func outputCatalogErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = CLIError{Code: ErrCodeCatalog, Message: err.Error()}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("catalog compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Catalog compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		var compileErr *compiler.CompileError
		if errors.As(err, &compileErr) && compileErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				compileErr.Pos.Filename(),
				compileErr.Pos.Line(),
				compileErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s\n\n", err.Error())
	}

	return NewExitError(ExitFailure, fmt.Sprintf("catalog compilation failed with %d error(s)", len(errs)))
}

// loadPlanFile reads and decodes a plan document from a JSON file.
func loadPlanFile(path string) (plan.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plan.Document{}, fmt.Errorf("read plan file: %w", err)
	}
	var doc plan.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return plan.Document{}, fmt.Errorf("decode plan file %s: %w", path, err)
	}
	return doc, nil
}
