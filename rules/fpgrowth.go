package rules

import "sort"

// fpNode 是 FP-tree 的节点。
type fpNode struct {
	item     string
	count    int
	parent   *fpNode
	children map[string]*fpNode
	next     *fpNode // 同 item 节点链
}

type fpTree struct {
	root    *fpNode
	headers map[string]*fpNode // item -> 节点链头
	counts  map[string]int     // item -> 树内总支持计数
}

func newFPTree() *fpTree {
	return &fpTree{
		root:    &fpNode{children: map[string]*fpNode{}},
		headers: map[string]*fpNode{},
		counts:  map[string]int{},
	}
}

// insert 把一条（已按全局频次排好序的）事务路径插入树中。
func (t *fpTree) insert(items []string, count int) {
	node := t.root
	for _, item := range items {
		child, ok := node.children[item]
		if !ok {
			child = &fpNode{item: item, parent: node, children: map[string]*fpNode{}}
			node.children[item] = child
			child.next = t.headers[item]
			t.headers[item] = child
		}
		child.count += count
		t.counts[item] += count
		node = child
	}
}

// MineFrequentItemsets 用 FP-Growth 挖掘频繁项集。
// transactions 的每条事务内元素唯一；minSupport 是出现占比阈值 (0,1]。
// 返回 排序后的项集 -> 支持计数。
func MineFrequentItemsets(transactions [][]string, minSupport float64) map[string]int {
	if len(transactions) == 0 {
		return nil
	}
	minCount := int(minSupport * float64(len(transactions)))
	if float64(minCount) < minSupport*float64(len(transactions)) {
		minCount++
	}
	if minCount < 1 {
		minCount = 1
	}

	// 首遍统计单品频次
	freq := map[string]int{}
	for _, tx := range transactions {
		for _, item := range tx {
			freq[item]++
		}
	}

	// 二遍建树：每条事务剔除非频繁项，按 (频次降序, 字典序) 排序保证路径共享
	tree := newFPTree()
	for _, tx := range transactions {
		kept := make([]string, 0, len(tx))
		for _, item := range tx {
			if freq[item] >= minCount {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			continue
		}
		sort.Slice(kept, func(i, j int) bool {
			if freq[kept[i]] != freq[kept[j]] {
				return freq[kept[i]] > freq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		tree.insert(kept, 1)
	}

	out := map[string]int{}
	mineTree(tree, nil, minCount, out)
	return out
}

// mineTree 递归挖掘条件 FP-tree。suffix 是当前条件模式基。
func mineTree(tree *fpTree, suffix []string, minCount int, out map[string]int) {
	items := make([]string, 0, len(tree.headers))
	for item := range tree.headers {
		if tree.counts[item] >= minCount {
			items = append(items, item)
		}
	}
	sort.Strings(items)

	for _, item := range items {
		itemset := append(append([]string{}, suffix...), item)
		sort.Strings(itemset)
		out[itemsetKey(itemset)] = tree.counts[item]

		// 收集条件模式基：每个 item 节点到根的前缀路径
		cond := newFPTree()
		for node := tree.headers[item]; node != nil; node = node.next {
			path := make([]string, 0)
			for p := node.parent; p != nil && p.item != ""; p = p.parent {
				path = append(path, p.item)
			}
			// path 是叶到根，翻转为根到叶
			for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
				path[i], path[j] = path[j], path[i]
			}
			if len(path) > 0 {
				cond.insert(path, node.count)
			}
		}
		mineTree(cond, itemset, minCount, out)
	}
}

const keySep = "\x00"

func itemsetKey(items []string) string {
	key := items[0]
	for _, item := range items[1:] {
		key += keySep + item
	}
	return key
}

func splitKey(key string) []string {
	items := []string{}
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			items = append(items, key[start:i])
			start = i + 1
		}
	}
	return append(items, key[start:])
}

// GenerateRules 从频繁项集生成关联规则。
// 对每个大小 ≥2 的项集枚举全部非空真子集作为前件；
// confidence = support(项集)/support(前件)，lift = confidence/support(后件)。
func GenerateRules(itemsets map[string]int, numTransactions int, minConfidence float64) []Rule {
	if numTransactions == 0 {
		return nil
	}
	total := float64(numTransactions)
	var rules []Rule
	for key, count := range itemsets {
		items := splitKey(key)
		if len(items) < 2 {
			continue
		}
		support := float64(count) / total
		for mask := 1; mask < (1<<len(items))-1; mask++ {
			ante := make([]string, 0, len(items))
			cons := make([]string, 0, len(items))
			for i, item := range items {
				if mask&(1<<i) != 0 {
					ante = append(ante, item)
				} else {
					cons = append(cons, item)
				}
			}
			anteCount, ok := itemsets[itemsetKey(ante)]
			if !ok || anteCount == 0 {
				continue
			}
			confidence := float64(count) / float64(anteCount)
			if confidence < minConfidence {
				continue
			}
			consCount := itemsets[itemsetKey(cons)]
			lift := 0.0
			if consCount > 0 {
				lift = confidence / (float64(consCount) / total)
			}
			rules = append(rules, Rule{
				Antecedent: ante,
				Consequent: cons,
				Support:    support,
				Confidence: confidence,
				Lift:       lift,
			})
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Confidence != rules[j].Confidence {
			return rules[i].Confidence > rules[j].Confidence
		}
		return itemsetKey(rules[i].Antecedent) < itemsetKey(rules[j].Antecedent)
	})
	return rules
}
