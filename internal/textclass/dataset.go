package textclass

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Example is one labelled training text.
type Example struct {
	Text  string
	Label int
}

// SampleDataset returns the illustrative headlines used by the trainer when
// no data files are given.
func SampleDataset() []Example {
	fakeNews := []string{
		"SHOCKING: Scientists discover this one weird trick that doctors don't want you to know!",
		"BREAKING: Celebrity found dead in hotel room - you won't believe what happened next!",
		"Miracle cure for all diseases discovered but Big Pharma is hiding it from you!",
		"Government conspiracy revealed: They have been lying to us all along!",
		"Unbelievable footage shows aliens landing in downtown area - video proof inside!",
		"Local mom discovers this simple trick to lose 50 pounds in 2 weeks!",
		"Banks hate him! This man found a secret loophole to get free money!",
		"Doctors are amazed by this new supplement that reverses aging instantly!",
		"You won't believe what this teacher did when students weren't paying attention!",
		"Secret government documents leaked - the truth will shock you!",
	}
	realNews := []string{
		"The Federal Reserve announced today a 0.25% increase in interest rates following their monthly meeting.",
		"Researchers at Harvard University published a study showing the effects of climate change on coral reefs.",
		"The mayor held a press conference to discuss the new infrastructure development plans for the city.",
		"Stock markets closed higher today as investors reacted positively to the latest employment data.",
		"Scientists at NASA announced the successful launch of their new Mars exploration rover mission.",
		"The Department of Health issued new guidelines for vaccination protocols in response to recent outbreaks.",
		"Local school district receives federal funding to improve STEM education programs in elementary schools.",
		"Weather service issues flood warning for coastal areas due to expected heavy rainfall this weekend.",
		"University researchers conduct study on the effectiveness of renewable energy sources in rural communities.",
		"City council approves budget allocation for public transportation improvements scheduled for next year.",
	}

	examples := make([]Example, 0, len(fakeNews)+len(realNews))
	for _, t := range fakeNews {
		examples = append(examples, Example{Text: t, Label: ClassFake})
	}
	for _, t := range realNews {
		examples = append(examples, Example{Text: t, Label: ClassReal})
	}
	return examples
}

// FallbackDataset returns the six short texts the fallback model is fitted on.
func FallbackDataset() []Example {
	return []Example{
		{Text: "This is a real news article about politics and government", Label: ClassReal},
		{Text: "This is fake news spreading misinformation", Label: ClassFake},
		{Text: "Scientific research shows important findings", Label: ClassReal},
		{Text: "Unverified claims about celebrities", Label: ClassFake},
		{Text: "Official government announcement", Label: ClassReal},
		{Text: "Conspiracy theory without evidence", Label: ClassFake},
	}
}

// LoadExamples reads every CSV file matching pattern (doublestar syntax,
// e.g. "data/**/*.csv"). Files need "text" and "label" columns; labels are
// 0/1 or fake/real.
func LoadExamples(pattern string) ([]Example, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid dataset pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", ErrInvalidTrainingData, pattern)
	}

	var examples []Example
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open dataset: %w", err)
		}
		batch, err := ReadExamples(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		examples = append(examples, batch...)
	}
	return examples, nil
}

// ReadExamples parses one labelled CSV stream.
func ReadExamples(r io.Reader) ([]Example, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidTrainingData)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	textCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text":
			textCol = i
		case "label":
			labelCol = i
		}
	}
	if textCol < 0 || labelCol < 0 {
		return nil, fmt.Errorf("%w: header needs text and label columns", ErrInvalidTrainingData)
	}

	var examples []Example
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if textCol >= len(record) || labelCol >= len(record) {
			return nil, fmt.Errorf("%w: line %d is missing columns", ErrInvalidTrainingData, line)
		}
		label, err := ParseLabel(record[labelCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		examples = append(examples, Example{Text: record[textCol], Label: label})
	}
	return examples, nil
}

// ParseLabel accepts 0/1 and fake/real in any case.
func ParseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "fake":
		return ClassFake, nil
	case "1", "real":
		return ClassReal, nil
	}
	return 0, fmt.Errorf("%w: unknown label %q", ErrInvalidTrainingData, s)
}
