package dc

import "Regnum/internal/game/domain"

// merge 把 older 和 newer 合并成一个快照，同一实体以 newer 为准。
// newer 里写入的实体从删除列表里去掉，newer 里删除的实体从写入列表里去掉。
func merge(older, newer *domain.WorldSnap) *domain.WorldSnap {
	if older == nil {
		return newer
	}
	if newer == nil {
		return older
	}
	if older.Version > newer.Version {
		older, newer = newer, older
	}

	out := &domain.WorldSnap{Version: newer.Version, Checkpoint: newer.Checkpoint}
	if out.Checkpoint == nil {
		out.Checkpoint = older.Checkpoint
	}

	out.Players, out.Removed.Players = mergeKeyed(older.Players, newer.Players, older.Removed.Players, newer.Removed.Players,
		func(p domain.PlayerLedger) domain.PlayerID { return p.Player.ID })
	out.Buildings, out.Removed.Buildings = mergeKeyed(older.Buildings, newer.Buildings, older.Removed.Buildings, newer.Removed.Buildings,
		func(b domain.Building) domain.BuildingID { return b.ID })
	out.Armies, out.Removed.Armies = mergeKeyed(older.Armies, newer.Armies, older.Removed.Armies, newer.Removed.Armies,
		func(u domain.ArmyUnit) domain.ArmyID { return u.ID })
	out.Regions, _ = mergeKeyed(older.Regions, newer.Regions, nil, nil, func(r domain.Region) string { return r.Name })
	out.Alliances, _ = mergeKeyed(older.Alliances, newer.Alliances, nil, nil, func(a domain.Alliance) domain.AllianceID { return a.ID })
	out.Wars, _ = mergeKeyed(older.Wars, newer.Wars, nil, nil, func(w domain.War) domain.WarID { return w.ID })
	return out
}

func mergeKeyed[T any, K comparable](older, newer []T, olderDel, newerDel []K, key func(T) K) ([]T, []K) {
	upserts := make(map[K]T, len(older)+len(newer))
	deleted := make(map[K]struct{}, len(olderDel)+len(newerDel))
	var order []K

	apply := func(items []T, del []K) {
		for _, k := range del {
			delete(upserts, k)
			deleted[k] = struct{}{}
		}
		for _, it := range items {
			k := key(it)
			if _, seen := upserts[k]; !seen {
				order = append(order, k)
			}
			upserts[k] = it
			delete(deleted, k)
		}
	}
	apply(older, olderDel)
	apply(newer, newerDel)

	var items []T
	for _, k := range order {
		if it, ok := upserts[k]; ok {
			items = append(items, it)
			delete(upserts, k)
		}
	}
	var dels []K
	for k := range deleted {
		dels = append(dels, k)
	}
	return items, dels
}
