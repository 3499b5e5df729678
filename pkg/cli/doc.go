/*
Package cli provides command-line interface utilities for the ganymede
command.

Output Formatting:

The cli package supports multiple output formats (text, JSON, CSV) for
displaying command results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

CSV output is tabular: pass [][]string rows and set Headers on the
CSVFormatter for the header row.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	sigChan := cli.WaitForShutdown()
	<-sigChan
	// begin shutdown
*/
package cli
