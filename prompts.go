package main

import (
	"fmt"
	"strconv"

	"github.com/algorand/go-algorand-sdk/v2/types"
	"github.com/manifoldco/promptui"
)

func getUint(prompt string, defVal uint64, minVal uint64, maxVal uint64) (uint64, error) {
	validate := func(input string) error {
		value, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return err
		}
		if value < minVal || value > maxVal {
			return fmt.Errorf("value must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
	result, err := (&promptui.Prompt{
		Label:    prompt,
		Default:  strconv.FormatUint(defVal, 10),
		Validate: validate,
	}).Run()
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(result, 10, 64)
}

func getAlgoAccount(prompt string, defVal string) (types.Address, error) {
	result, err := (&promptui.Prompt{
		Label:   prompt,
		Default: defVal,
		Validate: func(s string) error {
			_, err := types.DecodeAddress(s)
			return err
		},
	}).Run()
	if err != nil {
		return types.Address{}, err
	}
	return types.DecodeAddress(result)
}

func yesNo(prompt string) (string, error) {
	return (&promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}).Run()
}
