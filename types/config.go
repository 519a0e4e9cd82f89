package types

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultKorektorURL       = "https://lindat.mff.cuni.cz/services/korektor/"
	DefaultSuggestionsURL    = "https://lindat.mff.cuni.cz/services/korektor/api/suggestions"
	DefaultTaggerURL         = "https://nlp.fi.muni.cz/languageservices/service.py"
	DefaultAztekiumURL       = "http://aztekium.pl/sklonovanie.py"
	DefaultVariantsDelimiter = "/"
)

type CorrectionSurface struct {
	URL            string        `yaml:"url"`
	SuggestionsURL string        `yaml:"suggestions_url"`
	TaskSelector   string        `yaml:"task_selector"`
	InputSelector  string        `yaml:"input_selector"`
	SubmitSelector string        `yaml:"submit_selector"`
	Timeout        time.Duration `yaml:"timeout"`
}

type AnnotationService struct {
	URL      string        `yaml:"url"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

type DeclensionSurface struct {
	URL              string        `yaml:"url"`
	LanguageSelector string        `yaml:"language_selector"`
	InputSelector    string        `yaml:"input_selector"`
	ResultSelector   string        `yaml:"result_selector"`
	Delimiter        string        `yaml:"delimiter"`
	Timeout          time.Duration `yaml:"timeout"`
}

// Surfaces describes where and how the three external steps are reached.
type Surfaces struct {
	Correction CorrectionSurface `yaml:"correction"`
	Annotation AnnotationService `yaml:"annotation"`
	Declension DeclensionSurface `yaml:"declension"`
}

func DefaultSurfaces() Surfaces {
	return Surfaces{
		Correction: CorrectionSurface{
			URL:            DefaultKorektorURL,
			SuggestionsURL: DefaultSuggestionsURL,
			TaskSelector:   "#tasks > label:nth-child(2)",
			InputSelector:  "#input",
			SubmitSelector: "#submit",
			Timeout:        30 * time.Second,
		},
		Annotation: AnnotationService{
			URL:      DefaultTaggerURL,
			Language: "cs",
			Timeout:  30 * time.Second,
		},
		Declension: DeclensionSurface{
			URL: DefaultAztekiumURL,
			LanguageSelector: "body > center > form > table:nth-child(3) > tbody > tr > td:nth-child(2) > " +
				"table:nth-child(2) > tbody > tr:nth-child(1) > td:nth-child(4) > a > img",
			InputSelector:  "#in",
			ResultSelector: `td[bgcolor="#eeeeee"]`,
			Delimiter:      DefaultVariantsDelimiter,
			Timeout:        30 * time.Second,
		},
	}
}

// LoadSurfaces reads a YAML surfaces file on top of the defaults. An empty
// path returns the defaults.
func LoadSurfaces(filePath string) (Surfaces, error) {
	surfaces := DefaultSurfaces()
	if filePath == "" {
		return surfaces, nil
	}
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return surfaces, err
	}
	if err := yaml.Unmarshal(buf, &surfaces); err != nil {
		return surfaces, err
	}
	return surfaces, surfaces.Validate()
}

func (s Surfaces) Validate() error {
	switch {
	case s.Correction.URL == "" || s.Correction.SuggestionsURL == "":
		return errors.New("correction surface url is empty")
	case s.Annotation.URL == "":
		return errors.New("annotation service url is empty")
	case s.Declension.URL == "":
		return errors.New("declension surface url is empty")
	case s.Declension.Delimiter == "":
		return errors.New("declension delimiter is empty")
	}
	return nil
}
