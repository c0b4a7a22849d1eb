// Package qrda2qpp converts QRDA Category III XML submissions into QPP JSON.
//
// # Quick Start
//
// Create a converter and convert a document:
//
//	conv, err := qrda2qpp.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := conv.Convert(ctx, qrda2qpp.Input{
//	    Source: "submission.xml",
//	    Data:   data,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	switch result.Status {
//	case qrda2qpp.Success:
//	    os.WriteFile("submission.qpp.json", result.Output, 0o644)
//	default:
//	    os.WriteFile("submission.err.json", result.ErrorJSON, 0o644)
//	}
//
// # Conversion Pipeline
//
// Each document goes through these stages:
//
//  1. Decode: the XML is parsed and every element whose templateId is
//     registered becomes a node in a template-tagged tree. Unrecognized
//     elements are skipped but their descendants are still searched.
//  2. Validate: single-node and cross-node rules run over the whole tree
//     and every failure is collected.
//  3. Encode: the validated tree is rendered as QPP JSON.
//
// Input that is not XML, or XML without a QRDA-III document template, ends
// with status NonRecoverable. Rule violations end with ValidationError and
// an error report; the encoder never runs on an invalid tree.
//
// # Configuration
//
// Use functional options to customize the converter:
//
//	conv, err := qrda2qpp.New(
//	    qrda2qpp.WithValidation(false),
//	    qrda2qpp.WithDefaults(false),
//	    qrda2qpp.WithLogger(slog.Default()),
//	)
//
// # Storing Results
//
// Transform converts and hands the result to a Sink. FileSink writes
// <name>.qpp.json or <name>.err.json atomically:
//
//	result, err := conv.Transform(ctx, input, &qrda2qpp.FileSink{Dir: "out"})
//	if errors.Is(err, qrda2qpp.ErrSinkWrite) {
//	    // conversion finished, storing failed
//	}
//
// # Concurrency
//
// A Converter may be shared by goroutines. The template registry and the
// measure catalogue are built once per process and only read afterwards.
package qrda2qpp
