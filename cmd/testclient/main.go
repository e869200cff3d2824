package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"interview-evaluator-service/internal/models"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8000", "Evaluator base URL")
	transcript := flag.String("transcript", "I'd put a load balancer in front of stateless API servers, with Postgres and a Redis cache.", "Transcript to evaluate")
	diagramFile := flag.String("diagram", "", "Optional diagram image (jpeg, png, gif or webp)")
	previousState := flag.String("previous", "", "Previous interviewer state")
	speechOut := flag.String("speech-out", "", "Write the narrated feedback as raw PCM to this file")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}

	req := models.EvaluateRequest{
		Transcript:    *transcript,
		PreviousState: *previousState,
	}
	if *diagramFile != "" {
		data, err := os.ReadFile(*diagramFile)
		if err != nil {
			log.Fatalf("failed to read diagram: %v", err)
		}
		req.DiagramBase64 = base64.StdEncoding.EncodeToString(data)
		req.DiagramMediaType = mime.TypeByExtension(filepath.Ext(*diagramFile))
	}

	var ev models.Evaluation
	start := time.Now()
	if err := postJSON(client, *serverURL+"/evaluate", req, &ev); err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}
	log.Printf("Evaluation received in %v", time.Since(start))

	pretty, _ := json.MarshalIndent(ev, "", "  ")
	fmt.Println(string(pretty))

	if *speechOut == "" {
		return
	}

	body, _ := json.Marshal(models.SpeechRequest{Text: ev.VerbalFeedback, Emotion: ev.MinimaxEmotion.String()})
	resp, err := client.Post(*serverURL+"/tts/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("speech request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		log.Fatalf("speech request failed: %s: %s", resp.Status, msg)
	}

	out, err := os.Create(*speechOut)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer out.Close()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		log.Fatalf("failed to write speech: %v", err)
	}
	log.Printf("Wrote %d bytes of %s to %s", n, resp.Header.Get("Content-Type"), *speechOut)
}

func postJSON(client *http.Client, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: %s (%s)", resp.Status, e.Error, e.Kind)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
