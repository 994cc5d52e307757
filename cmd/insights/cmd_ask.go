// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianInsights/services/insights/datatypes"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

// runAskCommand sends the question to the insights server and renders
// the answer, the calculation steps behind it, and any follow-ups.
func runAskCommand(cmd *cobra.Command, args []string) {
	query := strings.Join(args, " ")

	reqBody, err := json.Marshal(datatypes.AskRequest{Query: query})
	if err != nil {
		printError("Error encoding the request: %v", err)
		os.Exit(1)
	}

	resp, err := httpClient.Post(serverURL+"/v1/ask", "application/json", bytes.NewReader(reqBody))
	if err != nil {
		printError("Error reaching the insights server at %s: %v", serverURL, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		printError("Error reading the response: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode != http.StatusOK {
		printError("Server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
		os.Exit(1)
	}

	var answer datatypes.AskResponse
	if err := json.Unmarshal(body, &answer); err != nil {
		printError("Error decoding the response: %v", err)
		os.Exit(1)
	}

	renderAskResponse(&answer)
}

func renderAskResponse(answer *datatypes.AskResponse) {
	printHeading("Answer")
	fmt.Println(answer.Answer)

	if len(answer.Calculations) > 0 {
		fmt.Println()
		printHeading("Calculations")
		for _, calcResult := range answer.Calculations {
			if calcResult.Error != "" {
				fmt.Printf("  %s: error: %s\n", calcResult.ResultName, calcResult.Error)
				continue
			}
			fmt.Printf("  %s = %s\n", calcResult.ResultName, calcResult.Formatted)
			printDim("    " + calcResult.Expression)
		}
	}

	if len(answer.FollowUpQuestions) > 0 {
		fmt.Println()
		printHeading("You could also ask")
		for _, q := range answer.FollowUpQuestions {
			fmt.Printf("  - %s\n", q)
		}
	}

	printDim("\nrequest: " + answer.RequestID)
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	resp, err := httpClient.Get(serverURL + "/health")
	if err != nil {
		printError("Server unreachable at %s: %v", serverURL, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		printError("Server returned %s", resp.Status)
		os.Exit(1)
	}
	fmt.Printf("insights server at %s is healthy\n", serverURL)
}
