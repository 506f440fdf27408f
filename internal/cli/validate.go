package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/threadshift/internal/bodymap"
	"github.com/ppiankov/threadshift/internal/model"
)

var (
	validatePartial bool
	validateJSON    bool
)

// errInvalidBody makes the command exit non-zero after the report is printed.
var errInvalidBody = errors.New("body map is invalid")

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validatePartial, "partial", false, "Skip required-zone presence checks")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the result as JSON")
}

var validateCmd = &cobra.Command{
	Use:   "validate <body.json>",
	Short: "Validate a body map against the schema",
	Long:  "Reads a body map (or a character with a \"body\" field) and reports every schema violation.\nExits 1 when the body map is invalid.",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	body, err := readBody(args[0])
	if err != nil {
		return err
	}

	res := bodymap.Validate(body)
	if validatePartial {
		res = bodymap.ValidatePartial(body)
	}

	if validateJSON {
		if err := printJSON(cmd, res); err != nil {
			return err
		}
	} else if res.Valid {
		fmt.Fprintln(cmd.OutOrStdout(), "OK: body map is valid")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %d problems\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", e)
		}
	}

	if !res.Valid {
		return errInvalidBody
	}
	return nil
}

// readBody accepts either a bare body map or a character document.
func readBody(path string) (model.BodyMap, error) {
	var doc map[string]any
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	if body, ok := doc["body"].(map[string]any); ok {
		return body, nil
	}
	return doc, nil
}

func readCharacter(path string) (*model.Character, error) {
	var c model.Character
	if err := readJSON(path, &c); err != nil {
		return nil, err
	}
	if c.Body == nil {
		return nil, fmt.Errorf("%s: character has no body map", path)
	}
	return &c, nil
}
