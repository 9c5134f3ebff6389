package sqlinline

const QStatsSummary = `--sql 0d2f4a6c-8e1b-4d3f-a5c7-9e1b3d5f7a9c
select
  count(*) filter (where status = 'QUEUED')                                  as queued,
  count(*) filter (where status = 'RUNNING')                                 as running,
  count(*) filter (where status = 'SUCCEEDED')                               as succeeded,
  count(*) filter (where status = 'FAILED')                                  as failed,
  count(*) filter (where created_at > now() - interval '24 hours')           as last_24h
from jobs
where user_id = $1::uuid;
`
