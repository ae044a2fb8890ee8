package support

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/tessnode/internal/engine/enginetest"
	"github.com/MeKo-Tech/tessnode/internal/items"
	"github.com/MeKo-Tech/tessnode/internal/testutil"
	"github.com/MeKo-Tech/tessnode/internal/utils"
)

// RegisterSteps registers every step definition of the suite.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	testCtx.registerEngineSteps(sc)
	testCtx.registerFileSteps(sc)
	testCtx.registerCommandSteps(sc)
	testCtx.registerOutputSteps(sc)
}

func (testCtx *TestContext) registerEngineSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an OCR engine that reads "([^"]*)" with confidence (\d+)$`, func(text string, conf int) error {
		testCtx.Engine = enginetest.New(enginetest.TextPage(text, float64(conf)))
		return nil
	})
	sc.Step(`^an OCR engine that finds (\d+) words? per image$`, func(words int) error {
		testCtx.Engine = enginetest.New(enginetest.BuildPage(1, 1, 1, words, 1))
		return nil
	})
	sc.Step(`^an OCR engine that needs (\d+) milliseconds per image$`, func(ms int) error {
		testCtx.Engine = enginetest.NewSlow(enginetest.TextPage("late", 99), time.Duration(ms)*time.Millisecond)
		return nil
	})
	sc.Step(`^the engine should have been created (\d+) times?$`, func(n int) error {
		return expectEqual("engine creations", n, testCtx.Engine.Created())
	})
	sc.Step(`^the engine should have been terminated (\d+) times?$`, func(n int) error {
		return expectEqual("engine terminations", n, testCtx.Engine.Terminations())
	})
	sc.Step(`^the engine language should be "([^"]*)"$`, func(lang string) error {
		return expectEqual("engine language", lang, testCtx.Engine.Language())
	})
}

func (testCtx *TestContext) registerFileSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a PNG image "([^"]*)" of size (\d+)x(\d+)$`, func(name string, w, h int) error {
		data, err := utils.EncodePNG(testutil.CreateTestImage(w, h, color.White))
		if err != nil {
			return err
		}
		return testCtx.writeFile(name, data)
	})
	sc.Step(`^a PDF "([^"]*)" with (\d+) image pages?$`, func(name string, pages int) error {
		widths := make([]int, pages)
		for i := range widths {
			widths[i] = 8 + 4*i
		}
		return testCtx.writeFile(name, testutil.ImagePagesPDF(widths...))
	})
	sc.Step(`^a text file "([^"]*)"$`, func(name string) error {
		return testCtx.writeFile(name, []byte("plain text"))
	})
	sc.Step(`^the items on stdin attach (.+)$`, func(list string) error {
		return testCtx.itemsFromFiles(strings.Split(list, ","))
	})
	sc.Step(`^the file "([^"]*)" should exist$`, func(name string) error {
		if _, err := os.Stat(filepath.Join(testCtx.TempDir, name)); err != nil {
			return fmt.Errorf("expected %s to exist: %w", name, err)
		}
		return nil
	})
}

func (testCtx *TestContext) registerCommandSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I run tessnode with "([^"]*)"$`, func(ctx context.Context, args string) error {
		return testCtx.Run(ctx, strings.Fields(args))
	})
	sc.Step(`^the command should succeed$`, func() error {
		if testCtx.LastError != nil {
			return fmt.Errorf("command %v failed: %w\nstderr:\n%s", testCtx.LastArgs, testCtx.LastError, testCtx.LastStderr)
		}
		return nil
	})
	sc.Step(`^the command should fail with "([^"]*)"$`, func(msg string) error {
		if testCtx.LastError == nil {
			return fmt.Errorf("command %v succeeded, expected failure", testCtx.LastArgs)
		}
		if !strings.Contains(testCtx.LastError.Error(), msg) {
			return fmt.Errorf("expected error containing %q, got %q", msg, testCtx.LastError)
		}
		return nil
	})
	sc.Step(`^the command should finish within (\d+) milliseconds$`, func(ms int) error {
		if limit := time.Duration(ms) * time.Millisecond; testCtx.LastDuration > limit {
			return fmt.Errorf("command took %v, limit %v", testCtx.LastDuration, limit)
		}
		return nil
	})
	sc.Step(`^stdout should contain "([^"]*)"$`, func(s string) error {
		if !strings.Contains(testCtx.LastOutput, s) {
			return fmt.Errorf("stdout does not contain %q:\n%s", s, testCtx.LastOutput)
		}
		return nil
	})
}

func (testCtx *TestContext) registerOutputSteps(sc *godog.ScenarioContext) {
	sc.Step(`^there should be (\d+) outputs?$`, func(n int) error {
		return expectEqual("output count", n, len(testCtx.Outputs))
	})
	sc.Step(`^output (\d+) should have text "([^"]*)"$`, func(n int, text string) error {
		out, err := testCtx.output(n)
		if err != nil {
			return err
		}
		return expectEqual("text", text, out.JSON["text"])
	})
	sc.Step(`^output (\d+) should have (\d+) blocks$`, func(n, count int) error {
		out, err := testCtx.output(n)
		if err != nil {
			return err
		}
		blocks, ok := out.JSON["blocks"].([]any)
		if !ok {
			return fmt.Errorf("output %d has no blocks: %v", n, out.JSON)
		}
		return expectEqual("block count", count, len(blocks))
	})
	sc.Step(`^output (\d+) should be a timeout$`, func(n int) error {
		out, err := testCtx.output(n)
		if err != nil {
			return err
		}
		return expectEqual("json", fmt.Sprint(map[string]any{"timeout": true}), fmt.Sprint(out.JSON))
	})
	sc.Step(`^output (\d+) should have error code "([^"]*)"$`, func(n int, code string) error {
		out, err := testCtx.output(n)
		if err != nil {
			return err
		}
		return expectEqual("error code", code, out.Error["code"])
	})
	sc.Step(`^output (\d+) should be paired with item (\d+)$`, func(n, item int) error {
		out, err := testCtx.output(n)
		if err != nil {
			return err
		}
		return expectEqual("paired item", item, out.PairedItem.Item)
	})
	sc.Step(`^the OCR image of output (\d+) should be named "([^"]*)"$`, func(n int, name string) error {
		out, err := testCtx.output(n)
		if err != nil {
			return err
		}
		bin, ok := out.Binary[items.OCRField]
		if !ok {
			return fmt.Errorf("output %d has no %q binary", n, items.OCRField)
		}
		return expectEqual("OCR image name", name, bin.FileName)
	})
}

func (testCtx *TestContext) writeFile(name string, data []byte) error {
	path := filepath.Join(testCtx.TempDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// itemsFromFiles builds the stdin items JSON; "nothing" yields an item
// without attachments.
func (testCtx *TestContext) itemsFromFiles(names []string) error {
	list := make([]map[string]any, 0, len(names))
	for i, name := range names {
		name = strings.Trim(strings.TrimSpace(name), `"`)
		item := map[string]any{"json": map[string]any{"index": i}}
		if name != "nothing" {
			data, err := os.ReadFile(filepath.Join(testCtx.TempDir, name))
			if err != nil {
				return err
			}
			item["binary"] = map[string]any{
				items.DefaultField: map[string]any{
					"data":     base64.StdEncoding.EncodeToString(data),
					"mimeType": utils.MimeTypeForPath(name),
					"fileName": name,
				},
			}
		}
		list = append(list, item)
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	testCtx.Stdin = string(raw)
	return nil
}

func expectEqual(what string, want, got any) error {
	if fmt.Sprint(want) != fmt.Sprint(got) {
		return fmt.Errorf("%s: expected %v, got %v", what, want, got)
	}
	return nil
}
