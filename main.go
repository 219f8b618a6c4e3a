/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/tristendillon/widgetforge/cmd"

func main() {
	cmd.Execute()
}
