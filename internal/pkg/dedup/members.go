package dedup

// diffMembers 计算当前快照相对已处理集合的增量：
// added 为新增成员（待通知），removed 为已离开成员（需从已处理集合剔除，
// 这样同一成员再次加入会重新触发通知）
func diffMembers(processed, current []string) (added, removed []string) {
	processedSet := make(map[string]struct{}, len(processed))
	for _, m := range processed {
		processedSet[m] = struct{}{}
	}

	currentSet := make(map[string]struct{}, len(current))
	for _, m := range current {
		currentSet[m] = struct{}{}
		if _, ok := processedSet[m]; !ok {
			added = append(added, m)
		}
	}

	for _, m := range processed {
		if _, ok := currentSet[m]; !ok {
			removed = append(removed, m)
		}
	}

	return added, removed
}
