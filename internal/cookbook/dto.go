package cookbook

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// flexString accepts a JSON string or number. Cookbook versions disagree on
// whether ids are numeric.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or a string with a leading number ("4 servings")
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
		if end == -1 {
			end = len(s)
		}
		n, _ := strconv.Atoi(s[:end])
		*f = flexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(int(n))
	return nil
}

// instructionDTO is either a bare string or a schema.org HowToStep object
type instructionDTO string

func (i *instructionDTO) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var step struct {
			Text string `json:"text"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &step); err != nil {
			return err
		}
		if step.Text == "" {
			step.Text = step.Name
		}
		*i = instructionDTO(step.Text)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = instructionDTO(s)
	return nil
}

// versionDTO mirrors /api/version. cookbook_version is a string on some
// servers and an array of integers ([0, 10, 2]) on others.
type versionDTO struct {
	CookbookVersion json.RawMessage `json:"cookbook_version"`
	APIVersion      struct {
		Epoch int `json:"epoch"`
		Major int `json:"major"`
		Minor int `json:"minor"`
	} `json:"api_version"`
}

// Version returns the cookbook version as dotted text ("" if absent)
func (v versionDTO) Version() string {
	raw := bytes.TrimSpace(v.CookbookVersion)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var parts []json.Number
	if err := json.Unmarshal(raw, &parts); err == nil {
		strs := make([]string, len(parts))
		for i, p := range parts {
			strs[i] = p.String()
		}
		return strings.Join(strs, ".")
	}
	return ""
}

// recipeStubDTO is one entry of /api/v1/recipes and /api/v1/search/{q}
type recipeStubDTO struct {
	ID           flexString `json:"id"`
	RecipeID     flexString `json:"recipe_id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	PrepTime     string     `json:"prepTime"`
	TotalTime    string     `json:"totalTime"`
	RecipeYield  flexInt    `json:"recipeYield"`
	Keywords     string     `json:"keywords"`
	DateModified string     `json:"dateModified"`
}

// identifier prefers recipe_id, which the index endpoint uses
func (r recipeStubDTO) identifier() string {
	if r.RecipeID != "" {
		return string(r.RecipeID)
	}
	return string(r.ID)
}

// recipeDTO is the schema.org Recipe returned by /api/v1/recipes/{id}
type recipeDTO struct {
	recipeStubDTO

	RecipeCategory     string           `json:"recipeCategory"`
	URL                string           `json:"url"`
	RecipeIngredient   []string         `json:"recipeIngredient"`
	RecipeInstructions []instructionDTO `json:"recipeInstructions"`
	Tool               []string         `json:"tool"`
}
