package commands

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Emission changes the pool's emission rate. The pool settles accrued
// yield at the old rate first, so the settlement comes back with the
// confirmation.
func Emission(url string, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("missing rate argument")
	}

	payload := struct {
		Rate string `json:"rate"`
	}{
		Rate: args[2],
	}

	body, err := post(url, "/v1/pool/config/emission", payload)
	if err != nil {
		return err
	}

	var result struct {
		Status     string     `json:"status"`
		Settlement settlement `json:"settlement"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}

	fmt.Println("Status:", result.Status)
	result.Settlement.print()

	return nil
}

// Interval changes the minimum time between rebases.
func Interval(url string, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("missing seconds argument")
	}

	seconds, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("seconds %q: %w", args[2], err)
	}

	payload := struct {
		Seconds uint64 `json:"seconds"`
	}{
		Seconds: seconds,
	}

	body, err := post(url, "/v1/pool/config/interval", payload)
	if err != nil {
		return err
	}

	var result struct {
		Status     string     `json:"status"`
		Settlement settlement `json:"settlement"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}

	fmt.Println("Status:", result.Status)
	result.Settlement.print()

	return nil
}

// Delay changes how long withdrawal requests wait before processing.
func Delay(url string, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("missing seconds argument")
	}

	seconds, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("seconds %q: %w", args[2], err)
	}

	payload := struct {
		Seconds uint64 `json:"seconds"`
	}{
		Seconds: seconds,
	}

	body, err := post(url, "/v1/pool/config/delay", payload)
	if err != nil {
		return err
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return err
	}

	fmt.Println("Status:", result.Status)

	return nil
}
