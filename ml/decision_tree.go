package ml

import (
	"errors"
	"fmt"
)

// DecisionTree is a fitted binary tree whose leaves carry the churn probability.
type DecisionTree struct {
	Names []string   `json:"feature_names"`
	Width int        `json:"n_features"`
	Nodes []TreeNode `json:"nodes"`
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	IsLeaf     bool    `json:"is_leaf"`
	// Probability of the positive class among training samples in this leaf.
	Probability float64 `json:"probability"`
}

func (dt *DecisionTree) validate() error {
	if len(dt.Nodes) == 0 {
		return errors.New("decision tree: no nodes")
	}
	if dt.Width == 0 {
		dt.Width = len(dt.Names)
	}
	if dt.Width == 0 {
		return errors.New("decision tree: n_features or feature_names required")
	}
	for i, node := range dt.Nodes {
		if node.IsLeaf {
			if node.Probability < 0 || node.Probability > 1 {
				return fmt.Errorf("decision tree: leaf %d probability %v outside [0,1]", i, node.Probability)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= dt.Width {
			return fmt.Errorf("decision tree: node %d feature index %d out of range", i, node.FeatureIdx)
		}
		if !validChild(node.LeftChild, i, len(dt.Nodes)) || !validChild(node.RightChild, i, len(dt.Nodes)) {
			return fmt.Errorf("decision tree: node %d has invalid children", i)
		}
	}
	return nil
}

// Children always come after their parent, which rules out cycles.
func validChild(child, parent, count int) bool {
	return child > parent && child < count
}

func (dt *DecisionTree) PredictProba(rows [][]float64) ([]float64, error) {
	if err := checkShape(rows, dt.Width); err != nil {
		return nil, err
	}
	probs := make([]float64, len(rows))
	for i, row := range rows {
		p, err := dt.predictRow(row)
		if err != nil {
			return nil, err
		}
		probs[i] = p
	}
	return probs, nil
}

func (dt *DecisionTree) predictRow(features []float64) (float64, error) {
	if len(dt.Nodes) == 0 {
		return 0, errors.New("model not trained")
	}
	idx := 0
	for {
		node := dt.Nodes[idx]
		if node.IsLeaf {
			return node.Probability, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.Nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) FeatureNames() []string { return dt.Names }

// RandomForest averages the leaf probabilities of its trees.
type RandomForest struct {
	Names []string       `json:"feature_names"`
	Width int            `json:"n_features"`
	Trees []DecisionTree `json:"trees"`
}

func (rf *RandomForest) validate() error {
	if len(rf.Trees) == 0 {
		return errors.New("random forest: no trees")
	}
	if rf.Width == 0 {
		rf.Width = len(rf.Names)
	}
	if rf.Width == 0 {
		return errors.New("random forest: n_features or feature_names required")
	}
	for i := range rf.Trees {
		tree := &rf.Trees[i]
		if tree.Width == 0 {
			tree.Width = rf.Width
		}
		if tree.Width != rf.Width {
			return fmt.Errorf("random forest: tree %d expects %d features, forest %d", i, tree.Width, rf.Width)
		}
		if err := tree.validate(); err != nil {
			return fmt.Errorf("random forest: tree %d: %w", i, err)
		}
	}
	return nil
}

func (rf *RandomForest) PredictProba(rows [][]float64) ([]float64, error) {
	if err := checkShape(rows, rf.Width); err != nil {
		return nil, err
	}
	probs := make([]float64, len(rows))
	for i := range rf.Trees {
		treeProbs, err := rf.Trees[i].PredictProba(rows)
		if err != nil {
			return nil, err
		}
		for j, p := range treeProbs {
			probs[j] += p
		}
	}
	for j := range probs {
		probs[j] /= float64(len(rf.Trees))
	}
	return probs, nil
}

func (rf *RandomForest) FeatureNames() []string { return rf.Names }
