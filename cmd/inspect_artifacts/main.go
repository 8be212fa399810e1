package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"churnpredict/ml"
)

func main() {
	modelPath := flag.String("model", ml.DefaultModelPath, "classifier artifact path (.json or .onnx)")
	scalerPath := flag.String("scaler", ml.DefaultScalerPath, "scaler artifact path")
	onnxRuntime := flag.String("onnx_runtime", "", "onnxruntime shared library path")
	flag.Parse()

	scaler, err := ml.DecodeScaler(*scalerPath)
	if err != nil {
		log.Fatalf("failed to load scaler: %v", err)
	}
	classifier, err := ml.DecodeClassifier(*modelPath, *onnxRuntime)
	if err != nil {
		log.Fatalf("failed to load classifier: %v", err)
	}
	artifacts := &ml.Artifacts{
		Classifier: classifier,
		Scaler:     scaler,
		ModelPath:  *modelPath,
		ScalerPath: *scalerPath,
	}
	defer artifacts.Close()

	fmt.Printf("scaler:     %s (%T)\n", *scalerPath, scaler)
	fmt.Printf("classifier: %s (%T)\n\n", *modelPath, classifier)
	fmt.Println(featureTable(artifacts))

	if err := ml.VerifyFeatureOrder(artifacts); err != nil {
		fmt.Fprintf(os.Stderr, "feature order check failed: %v\n", err)
		artifacts.Close()
		os.Exit(1)
	}
	fmt.Println("feature order OK")
}

func featureTable(a *ml.Artifacts) string {
	scalerNames := recordedNames(a.Scaler)
	modelNames := recordedNames(a.Classifier)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "expected", "scaler", "classifier")
	for i, name := range ml.FeatureNames() {
		t.Row(strconv.Itoa(i), name, column(scalerNames, i), column(modelNames, i))
	}
	return t.String()
}

func recordedNames(artifact any) []string {
	if namer, ok := artifact.(ml.FeatureNamer); ok {
		return namer.FeatureNames()
	}
	return nil
}

func column(names []string, i int) string {
	if len(names) == 0 {
		return "-"
	}
	if i >= len(names) {
		return "(missing)"
	}
	return names[i]
}
